package session

// TutorialAction is the sequencer's decision for one submission while the
// tutorial is active.
type TutorialAction int

const (
	// TutorialAdvance consumed a blank submission and revealed one more
	// script step. Nothing is persisted.
	TutorialAdvance TutorialAction = iota
	// TutorialIgnore consumed a blank submission with nothing to advance.
	TutorialIgnore
	// TutorialComplete deactivated the tutorial by exhausting the script.
	TutorialComplete
	// TutorialPassThrough deactivated the tutorial on real input; the
	// submission flows through as the chat's first real message.
	TutorialPassThrough
)

// Tutorial decides what onboarding content to show before a chat has any
// real messages, and when to hand control back. It never calls the language
// model; the content is static.
type Tutorial struct {
	script    Script
	firstEver bool
	step      int
	active    bool
}

func NewTutorial(script Script, firstEver bool) *Tutorial {
	return &Tutorial{script: script, firstEver: firstEver, active: true}
}

func (t *Tutorial) Active() bool { return t.active }

// FirstEver reports whether this run is the user's first-ever session, in
// which case deactivation must persist the onboarding-complete flag.
func (t *Tutorial) FirstEver() bool { return t.firstEver }

// View returns the onboarding messages revealed so far.
func (t *Tutorial) View() []string {
	if !t.active {
		return nil
	}
	if !t.firstEver {
		return []string{t.script.WelcomeBack}
	}
	return append([]string(nil), t.script.Steps[:t.step+1]...)
}

// Submit routes one trimmed submission through the sequencer. Real input
// always deactivates and passes through; blank input advances the first-ever
// script one step, completing once the final step has been seen.
func (t *Tutorial) Submit(trimmed string) TutorialAction {
	if trimmed != "" {
		t.active = false
		return TutorialPassThrough
	}
	if !t.firstEver {
		return TutorialIgnore
	}
	if t.step < len(t.script.Steps)-1 {
		t.step++
		return TutorialAdvance
	}
	t.active = false
	return TutorialComplete
}
