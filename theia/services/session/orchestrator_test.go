package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"theia/theia/services/llm"
	"theia/theia/utils/types"
)

type appendCall struct {
	Sender  string
	Content string
}

type fakeStore struct {
	mu       sync.Mutex
	messages []types.StoredMessage
	loadErr  error
	appends  []appendCall
	appended chan struct{}
}

func newFakeStore(messages ...types.StoredMessage) *fakeStore {
	return &fakeStore{messages: messages, appended: make(chan struct{}, 16)}
}

func (s *fakeStore) LoadMessages(ctx context.Context, chatID string) ([]types.StoredMessage, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.messages, nil
}

func (s *fakeStore) AppendMessage(ctx context.Context, chatID string, userID int, sender, content, modelID string) error {
	s.mu.Lock()
	s.appends = append(s.appends, appendCall{Sender: sender, Content: content})
	s.mu.Unlock()
	s.appended <- struct{}{}
	return nil
}

func (s *fakeStore) appendCalls() []appendCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appendCall(nil), s.appends...)
}

type fakeProfile struct {
	mu        sync.Mutex
	completed bool
	statusErr error
	setCalls  int
}

func (p *fakeProfile) GetOnboardingStatus(ctx context.Context, userID int) (bool, error) {
	return p.completed, p.statusErr
}

func (p *fakeProfile) SetOnboardingStatus(ctx context.Context, userID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setCalls++
	return nil
}

func (p *fakeProfile) sets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setCalls
}

type fakeContexts struct {
	content string
}

func (c *fakeContexts) ContextContent(ctx context.Context, itemID string) (string, error) {
	if itemID == "" {
		return "", nil
	}
	return c.content, nil
}

type fakeGateway struct {
	mu    sync.Mutex
	calls [][]llm.Message
	fn    func(messages []llm.Message) (string, error)
}

func (g *fakeGateway) Generate(ctx context.Context, messages []llm.Message, model string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, messages)
	g.mu.Unlock()
	if g.fn != nil {
		return g.fn(messages)
	}
	return "coach reply", nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeTitles struct {
	called chan []types.TranscriptEntry
}

func newFakeTitles() *fakeTitles {
	return &fakeTitles{called: make(chan []types.TranscriptEntry, 4)}
}

func (f *fakeTitles) GenerateTitle(ctx context.Context, chatID string, snapshot []types.TranscriptEntry) (string, error) {
	f.called <- snapshot
	return "Some Title", nil
}

func newTestOrchestrator(store *fakeStore, profile *fakeProfile, gateway *fakeGateway, titles *fakeTitles) *Orchestrator {
	return NewOrchestrator(Config{
		ChatID:                   "chat-1",
		UserID:                   1,
		Model:                    "test-model",
		TitleTriggerUserMessages: 2,
	}, store, profile, &fakeContexts{}, gateway, titles)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func stored(sender, content string) types.StoredMessage {
	return types.StoredMessage{ID: content, Sender: sender, Content: content}
}

func TestInitializeEmptyChatShowsFirstTutorialStep(t *testing.T) {
	profile := &fakeProfile{completed: false}
	o := newTestOrchestrator(newFakeStore(), profile, &fakeGateway{}, newFakeTitles())
	o.Initialize(context.Background())

	state := o.CurrentState()
	if len(state.Transcript) != 0 {
		t.Errorf("expected empty transcript, got %d entries", len(state.Transcript))
	}
	if len(state.TutorialView) != 1 {
		t.Fatalf("expected 1 tutorial step, got %d", len(state.TutorialView))
	}
	if state.TutorialView[0] != DefaultScript().Steps[0] {
		t.Errorf("unexpected first step: %q", state.TutorialView[0])
	}
}

func TestInitializeEmptyChatReturningUserSeesWelcomeBack(t *testing.T) {
	profile := &fakeProfile{completed: true}
	o := newTestOrchestrator(newFakeStore(), profile, &fakeGateway{}, newFakeTitles())
	o.Initialize(context.Background())

	state := o.CurrentState()
	if len(state.TutorialView) != 1 || state.TutorialView[0] != DefaultScript().WelcomeBack {
		t.Errorf("expected welcome-back view, got %v", state.TutorialView)
	}
}

func TestInitializeOnboardingLookupFailureFallsBackToWelcomeBack(t *testing.T) {
	profile := &fakeProfile{statusErr: errors.New("db down")}
	o := newTestOrchestrator(newFakeStore(), profile, &fakeGateway{}, newFakeTitles())
	o.Initialize(context.Background())

	state := o.CurrentState()
	if len(state.TutorialView) != 1 || state.TutorialView[0] != DefaultScript().WelcomeBack {
		t.Errorf("expected welcome-back view on lookup failure, got %v", state.TutorialView)
	}
}

func TestInitializeLoadErrorSurfacesButSessionStaysUsable(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("boom")
	o := newTestOrchestrator(store, &fakeProfile{}, &fakeGateway{}, newFakeTitles())
	o.Initialize(context.Background())

	state := o.CurrentState()
	if state.LoadError != "Could not load this conversation." {
		t.Errorf("unexpected load error: %q", state.LoadError)
	}
	if state.TutorialView != nil {
		t.Errorf("tutorial must not run after a load failure")
	}

	store.loadErr = nil
	o.Submit(context.Background(), "hello", "")
	got := o.CurrentState()
	if len(got.Transcript) != 2 {
		t.Fatalf("expected 2 entries after submit, got %d", len(got.Transcript))
	}
}

func TestInitializeMapsAssistantSenderToTheia(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	o := newTestOrchestrator(store, &fakeProfile{}, &fakeGateway{}, newFakeTitles())
	o.Initialize(context.Background())

	state := o.CurrentState()
	if len(state.Transcript) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(state.Transcript))
	}
	if state.Transcript[0].Sender != types.SenderUser {
		t.Errorf("first sender = %q", state.Transcript[0].Sender)
	}
	if state.Transcript[1].Sender != types.SenderTheia {
		t.Errorf("second sender = %q, want theia", state.Transcript[1].Sender)
	}
	if state.Transcript[0].Local || state.Transcript[1].Local {
		t.Errorf("loaded entries must not be marked local")
	}
}

func TestInitializeInterruptedSessionTriggersResponse(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "are you there?"))
	gateway := &fakeGateway{}
	o := newTestOrchestrator(store, &fakeProfile{}, gateway, newFakeTitles())
	o.Initialize(context.Background())

	waitFor(t, "auto response", func() bool {
		state := o.CurrentState()
		return !state.IsResponding && len(state.Transcript) == 2
	})
	state := o.CurrentState()
	if state.Transcript[1].Content != "coach reply" {
		t.Errorf("unexpected reply: %q", state.Transcript[1].Content)
	}
	calls := store.appendCalls()
	if len(calls) != 1 || calls[0].Sender != types.SenderAssistant {
		t.Errorf("expected exactly the assistant turn persisted, got %v", calls)
	}
}

func TestSubmitBlankIsDropped(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	gateway := &fakeGateway{}
	o := newTestOrchestrator(store, &fakeProfile{}, gateway, newFakeTitles())
	o.Initialize(context.Background())

	o.Submit(context.Background(), "   \n\t ", "")
	if gateway.callCount() != 0 {
		t.Errorf("blank submission must not reach the gateway")
	}
	if len(o.CurrentState().Transcript) != 2 {
		t.Errorf("blank submission must not change the transcript")
	}
}

func TestSubmitAppendsUserAndReply(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	o := newTestOrchestrator(store, &fakeProfile{}, &fakeGateway{}, newFakeTitles())
	o.Initialize(context.Background())

	o.Submit(context.Background(), "how do I start?", "")

	state := o.CurrentState()
	if len(state.Transcript) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(state.Transcript))
	}
	user, reply := state.Transcript[2], state.Transcript[3]
	if user.Sender != types.SenderUser || user.Content != "how do I start?" || !user.Local {
		t.Errorf("unexpected user entry: %+v", user)
	}
	if reply.Sender != types.SenderTheia || reply.Content != "coach reply" || !reply.Local {
		t.Errorf("unexpected reply entry: %+v", reply)
	}
	if state.IsResponding {
		t.Errorf("session must settle after the cycle")
	}

	waitFor(t, "both persists", func() bool { return len(store.appendCalls()) == 2 })
	senders := map[string]bool{}
	for _, c := range store.appendCalls() {
		senders[c.Sender] = true
	}
	if !senders[types.SenderUser] || !senders[types.SenderAssistant] {
		t.Errorf("expected both turns persisted, got %v", store.appendCalls())
	}
}

func TestSubmitGatewayErrorBecomesVisibleReply(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	gateway := &fakeGateway{fn: func([]llm.Message) (string, error) {
		return "", errors.New("rate limited")
	}}
	o := newTestOrchestrator(store, &fakeProfile{}, gateway, newFakeTitles())
	o.Initialize(context.Background())

	o.Submit(context.Background(), "hello?", "")

	state := o.CurrentState()
	reply := state.Transcript[len(state.Transcript)-1]
	if reply.Sender != types.SenderTheia || reply.Content != "Error: rate limited" {
		t.Errorf("unexpected error reply: %+v", reply)
	}
	if state.IsResponding {
		t.Errorf("session must settle after a failed cycle")
	}

	// Only the user turn is persisted on failure.
	waitFor(t, "user persist", func() bool { return len(store.appendCalls()) == 1 })
	if store.appendCalls()[0].Sender != types.SenderUser {
		t.Errorf("unexpected persist: %v", store.appendCalls())
	}
}

func TestSubmitPanicInGatewayIsRecovered(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	gateway := &fakeGateway{fn: func([]llm.Message) (string, error) { panic("wires crossed") }}
	o := newTestOrchestrator(store, &fakeProfile{}, gateway, newFakeTitles())
	o.Initialize(context.Background())

	o.Submit(context.Background(), "hello?", "")

	state := o.CurrentState()
	reply := state.Transcript[len(state.Transcript)-1]
	if reply.Content != "A cosmic interference occurred. Please try again." {
		t.Errorf("unexpected panic reply: %q", reply.Content)
	}
	if state.IsResponding {
		t.Errorf("session must settle after a panic")
	}

	// A later submission still works.
	gateway.fn = nil
	o.Submit(context.Background(), "still there?", "")
	got := o.CurrentState()
	if got.Transcript[len(got.Transcript)-1].Content != "coach reply" {
		t.Errorf("session unusable after panic recovery")
	}
}

func TestReentrantSubmitIsDropped(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	release := make(chan struct{})
	gateway := &fakeGateway{fn: func([]llm.Message) (string, error) {
		<-release
		return "slow reply", nil
	}}
	o := newTestOrchestrator(store, &fakeProfile{}, gateway, newFakeTitles())
	o.Initialize(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Submit(context.Background(), "first", "")
	}()
	waitFor(t, "in-flight state", func() bool { return o.CurrentState().IsResponding })

	o.Submit(context.Background(), "second", "")
	if gateway.callCount() != 1 {
		t.Errorf("re-entrant submit reached the gateway")
	}

	close(release)
	<-done

	state := o.CurrentState()
	if len(state.Transcript) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(state.Transcript))
	}
	if state.Transcript[2].Content != "first" {
		t.Errorf("dropped submission leaked into the transcript: %+v", state.Transcript)
	}
}

func TestTitleGenerationTriggersExactlyOnce(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	titles := newFakeTitles()
	o := newTestOrchestrator(store, &fakeProfile{}, &fakeGateway{}, titles)
	o.Initialize(context.Background())

	// One persisted user message; the second submission makes two, so the
	// trigger fires on the one after that.
	o.Submit(context.Background(), "second message", "")
	select {
	case <-titles.called:
		t.Fatalf("title generated too early")
	case <-time.After(50 * time.Millisecond):
	}

	o.Submit(context.Background(), "third message", "")
	var snapshot []types.TranscriptEntry
	select {
	case snapshot = <-titles.called:
	case <-time.After(2 * time.Second):
		t.Fatalf("title generation never triggered")
	}
	// The snapshot includes the reply to the triggering message.
	if len(snapshot) != 6 {
		t.Errorf("expected 6 entries in title snapshot, got %d", len(snapshot))
	}

	o.Submit(context.Background(), "fourth message", "")
	select {
	case <-titles.called:
		t.Errorf("title generation triggered twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTitleNotTriggeredWhenGenerationFails(t *testing.T) {
	store := newFakeStore(
		stored(types.SenderUser, "one"), stored(types.SenderAssistant, "r1"),
		stored(types.SenderUser, "two"), stored(types.SenderAssistant, "r2"),
	)
	titles := newFakeTitles()
	gateway := &fakeGateway{fn: func([]llm.Message) (string, error) {
		return "", errors.New("down")
	}}
	o := newTestOrchestrator(store, &fakeProfile{}, gateway, titles)
	o.Initialize(context.Background())

	o.Submit(context.Background(), "third message", "")
	select {
	case <-titles.called:
		t.Errorf("title must not be generated from a failed cycle")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTutorialBlankSubmissionsAdvanceAndComplete(t *testing.T) {
	profile := &fakeProfile{completed: false}
	gateway := &fakeGateway{}
	o := newTestOrchestrator(newFakeStore(), profile, gateway, newFakeTitles())
	o.Initialize(context.Background())

	steps := DefaultScript().Steps
	for i := 1; i < len(steps); i++ {
		o.Submit(context.Background(), "", "")
		view := o.CurrentState().TutorialView
		if len(view) != i+1 {
			t.Fatalf("after %d blanks expected %d steps, got %d", i, i+1, len(view))
		}
	}

	// Blank at the final step completes onboarding.
	o.Submit(context.Background(), "", "")
	state := o.CurrentState()
	if state.TutorialView != nil {
		t.Errorf("tutorial still visible after completion")
	}
	if profile.sets() != 1 {
		t.Errorf("onboarding flag persisted %d times, want 1", profile.sets())
	}
	if gateway.callCount() != 0 {
		t.Errorf("tutorial flow must not reach the gateway")
	}
	if len(state.Transcript) != 0 {
		t.Errorf("tutorial flow must not produce transcript entries")
	}
}

func TestTutorialRealInputPassesThrough(t *testing.T) {
	profile := &fakeProfile{completed: false}
	o := newTestOrchestrator(newFakeStore(), profile, &fakeGateway{}, newFakeTitles())
	o.Initialize(context.Background())

	o.Submit(context.Background(), "I want to talk about work", "")

	state := o.CurrentState()
	if state.TutorialView != nil {
		t.Errorf("tutorial still visible after pass-through")
	}
	if len(state.Transcript) != 2 {
		t.Fatalf("expected a real cycle, got %d entries", len(state.Transcript))
	}
	if profile.sets() != 1 {
		t.Errorf("pass-through on a first-ever session must persist onboarding")
	}
}

func TestTutorialReturningUserBlankIgnored(t *testing.T) {
	profile := &fakeProfile{completed: true}
	o := newTestOrchestrator(newFakeStore(), profile, &fakeGateway{}, newFakeTitles())
	o.Initialize(context.Background())

	o.Submit(context.Background(), "", "")
	state := o.CurrentState()
	if len(state.TutorialView) != 1 || state.TutorialView[0] != DefaultScript().WelcomeBack {
		t.Errorf("blank input must leave the welcome view unchanged, got %v", state.TutorialView)
	}

	o.Submit(context.Background(), "back again", "")
	if profile.sets() != 0 {
		t.Errorf("returning user must not re-persist the onboarding flag")
	}
	if len(o.CurrentState().Transcript) != 2 {
		t.Errorf("real input from a returning user must flow through")
	}
}

func TestSubmitPrependsContextBlock(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	gateway := &fakeGateway{}
	o := NewOrchestrator(Config{
		ChatID: "chat-1", UserID: 1, Model: "test-model", TitleTriggerUserMessages: 2,
	}, store, &fakeProfile{}, &fakeContexts{content: "--- Context: Goals ---\nrun a marathon\n--- End Context ---"}, gateway, newFakeTitles())
	o.Initialize(context.Background())

	o.Submit(context.Background(), "how am I doing?", "item-1")

	state := o.CurrentState()
	user := state.Transcript[2]
	if !strings.HasPrefix(user.Content, "--- Context: Goals ---") {
		t.Errorf("context block missing from user entry: %q", user.Content)
	}
	if !strings.HasSuffix(user.Content, "\n\nhow am I doing?") {
		t.Errorf("typed text must follow the context block: %q", user.Content)
	}

	gateway.mu.Lock()
	sent := gateway.calls[0]
	gateway.mu.Unlock()
	last := sent[len(sent)-1]
	if !strings.Contains(last.Content, "run a marathon") {
		t.Errorf("gateway did not receive the context block: %q", last.Content)
	}
}

func TestCloseDiscardsInFlightReply(t *testing.T) {
	store := newFakeStore(stored(types.SenderUser, "hi"), stored(types.SenderAssistant, "hello"))
	release := make(chan struct{})
	gateway := &fakeGateway{fn: func([]llm.Message) (string, error) {
		<-release
		return "late reply", nil
	}}
	o := newTestOrchestrator(store, &fakeProfile{}, gateway, newFakeTitles())
	o.Initialize(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Submit(context.Background(), "question", "")
	}()
	waitFor(t, "in-flight state", func() bool { return o.CurrentState().IsResponding })

	o.Close()
	close(release)
	<-done

	state := o.CurrentState()
	for _, entry := range state.Transcript {
		if entry.Content == "late reply" {
			t.Errorf("reply applied after close")
		}
	}
}
