// Package session owns the live message exchange loop for one chat: it keeps
// the in-memory transcript consistent with the durable store, serializes
// submissions, and hands the first empty-chat interaction to the tutorial
// sequencer.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"theia/theia/services/llm"
	"theia/theia/utils/logging"
	"theia/theia/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	loadErrorText    = "Could not load this conversation."
	panicReplyText   = "A cosmic interference occurred. Please try again."
	persistTimeout   = 5 * time.Second
	titleGenTimeout  = 30 * time.Second
	errorReplyPrefix = "Error: "
)

// phase is the session's mode. Exactly one holds at a time; the tutorial
// phases additionally carry the sequencer's step state.
type phase int

const (
	phaseLoading phase = iota
	phaseTutorialFirstTime
	phaseTutorialReturning
	phaseReady
	phaseResponding
)

type MessageStore interface {
	LoadMessages(ctx context.Context, chatID string) ([]types.StoredMessage, error)
	AppendMessage(ctx context.Context, chatID string, userID int, sender, content, modelID string) error
}

type ProfileStore interface {
	GetOnboardingStatus(ctx context.Context, userID int) (bool, error)
	SetOnboardingStatus(ctx context.Context, userID int) error
}

// ContextProvider supplies the optional text blob prepended to one outgoing
// message. An unknown id yields "" rather than an error.
type ContextProvider interface {
	ContextContent(ctx context.Context, itemID string) (string, error)
}

type Gateway interface {
	Generate(ctx context.Context, messages []llm.Message, model string) (string, error)
}

type TitleGenerator interface {
	GenerateTitle(ctx context.Context, chatID string, snapshot []types.TranscriptEntry) (string, error)
}

type Config struct {
	ChatID string
	UserID int
	Model  string
	// Persisted user-message count at which the next successful reply
	// triggers title generation.
	TitleTriggerUserMessages int
	Script                   Script
}

// Orchestrator drives one chat's exchange loop. All state lives behind mu;
// external calls (store, gateway) happen outside the lock.
type Orchestrator struct {
	cfg      Config
	store    MessageStore
	profile  ProfileStore
	contexts ContextProvider
	gateway  Gateway
	titles   TitleGenerator

	mu        sync.Mutex
	phase     phase
	tutorial  *Tutorial
	entries   []types.TranscriptEntry
	loadError string
	closed    bool
}

func NewOrchestrator(cfg Config, store MessageStore, profile ProfileStore, contexts ContextProvider, gateway Gateway, titles TitleGenerator) *Orchestrator {
	if cfg.TitleTriggerUserMessages <= 0 {
		cfg.TitleTriggerUserMessages = 2
	}
	if len(cfg.Script.Steps) == 0 {
		cfg.Script = DefaultScript()
	}
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		profile:  profile,
		contexts: contexts,
		gateway:  gateway,
		titles:   titles,
		phase:    phaseLoading,
	}
}

// transition is the single place the mode changes.
func (o *Orchestrator) transition(to phase) {
	o.phase = to
}

// Initialize loads the chat's persisted messages. An empty chat activates
// the tutorial; a load failure surfaces a transcript-load error but leaves
// the orchestrator usable for a fresh submission. A chat holding exactly one
// user message (an interrupted session) gets its first response triggered
// without a new submission.
func (o *Orchestrator) Initialize(ctx context.Context) {
	messages, err := o.store.LoadMessages(ctx, o.cfg.ChatID)
	if err != nil {
		logging.ErrorLogger.Error("transcript load failed",
			zap.String("chat_id", o.cfg.ChatID), zap.Error(err))
		o.mu.Lock()
		o.entries = nil
		o.loadError = loadErrorText
		o.transition(phaseReady)
		o.mu.Unlock()
		return
	}

	if len(messages) == 0 {
		completed, err := o.profile.GetOnboardingStatus(ctx, o.cfg.UserID)
		if err != nil {
			// Unknown onboarding state: show the short welcome rather than
			// re-running the full script.
			logging.ErrorLogger.Error("onboarding status lookup failed",
				zap.Int("user_id", o.cfg.UserID), zap.Error(err))
			completed = true
		}
		o.mu.Lock()
		o.entries = nil
		o.loadError = ""
		o.tutorial = NewTutorial(o.cfg.Script, !completed)
		if completed {
			o.transition(phaseTutorialReturning)
		} else {
			o.transition(phaseTutorialFirstTime)
		}
		o.mu.Unlock()
		return
	}

	entries := make([]types.TranscriptEntry, 0, len(messages))
	for _, m := range messages {
		sender := types.SenderUser
		if m.Sender == types.SenderAssistant {
			sender = types.SenderTheia
		}
		entries = append(entries, types.TranscriptEntry{ID: m.ID, Sender: sender, Content: m.Content})
	}

	interrupted := len(messages) == 1 && messages[0].Sender == types.SenderUser

	o.mu.Lock()
	o.entries = entries
	o.loadError = ""
	o.tutorial = nil
	o.transition(phaseReady)
	o.mu.Unlock()

	if interrupted {
		go func() {
			o.mu.Lock()
			if o.closed || o.phase != phaseReady {
				o.mu.Unlock()
				return
			}
			o.transition(phaseResponding)
			o.mu.Unlock()
			o.respond(context.Background(), false)
		}()
	}
}

// Submit runs one full submission cycle and returns once it settles. Blank
// submissions and re-entrant submissions while a response is in flight are
// dropped silently. While the tutorial is active the input is routed through
// the sequencer first and only flows onward as a real message once the
// sequencer passes it through.
func (o *Orchestrator) Submit(ctx context.Context, text, contextItemID string) {
	trimmed := strings.TrimSpace(text)

	o.mu.Lock()
	if o.closed || o.phase == phaseLoading || o.phase == phaseResponding {
		o.mu.Unlock()
		return
	}

	persistOnboarding := false
	if o.tutorial != nil && o.tutorial.Active() {
		firstEver := o.tutorial.FirstEver()
		switch o.tutorial.Submit(trimmed) {
		case TutorialAdvance, TutorialIgnore:
			o.mu.Unlock()
			return
		case TutorialComplete:
			o.tutorial = nil
			o.transition(phaseReady)
			o.mu.Unlock()
			if firstEver {
				o.completeOnboarding(ctx)
			}
			return
		case TutorialPassThrough:
			persistOnboarding = firstEver
			o.tutorial = nil
			o.transition(phaseReady)
		}
	}

	if trimmed == "" {
		o.mu.Unlock()
		return
	}

	// Count before the optimistic append decides the title trigger, so it
	// fires exactly once per chat.
	userCount := 0
	for _, e := range o.entries {
		if e.Sender == types.SenderUser {
			userCount++
		}
	}
	shouldTitle := userCount == o.cfg.TitleTriggerUserMessages

	// Claim the in-flight slot; re-entrant submits are dropped from here on.
	o.transition(phaseResponding)
	o.mu.Unlock()

	if persistOnboarding {
		o.completeOnboarding(ctx)
	}

	content := trimmed
	if contextItemID != "" && o.contexts != nil {
		block, err := o.contexts.ContextContent(ctx, contextItemID)
		if err != nil {
			logging.ErrorLogger.Error("context fetch failed",
				zap.String("context_item_id", contextItemID), zap.Error(err))
		} else if block != "" {
			content = block + "\n\n" + trimmed
		}
	}

	entry := types.TranscriptEntry{
		ID:      uuid.NewString(),
		Sender:  types.SenderUser,
		Content: content,
		Local:   true,
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.entries = append(o.entries, entry)
	o.mu.Unlock()

	// Fire-and-forget: a failed write is logged, never blocks the reply.
	go o.persistMessage(types.SenderUser, content)

	o.respond(ctx, shouldTitle)
}

// respond runs the generation half of a cycle. The caller must already hold
// the phaseResponding claim. The in-flight guard is always released, success
// or failure.
func (o *Orchestrator) respond(ctx context.Context, triggerTitle bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorLogger.Error("response cycle panic",
				zap.String("chat_id", o.cfg.ChatID), zap.Any("recover", r))
			o.mu.Lock()
			if !o.closed {
				o.entries = append(o.entries, types.TranscriptEntry{
					ID: uuid.NewString(), Sender: types.SenderTheia, Content: panicReplyText, Local: true,
				})
				o.transition(phaseReady)
			}
			o.mu.Unlock()
		}
	}()

	o.mu.Lock()
	snapshot := append([]types.TranscriptEntry(nil), o.entries...)
	o.mu.Unlock()

	text, err := o.gateway.Generate(ctx, llm.FromTranscript(snapshot), o.cfg.Model)

	reply := types.TranscriptEntry{ID: uuid.NewString(), Sender: types.SenderTheia, Local: true}
	if err != nil {
		// The error becomes a visible assistant turn; the conversation
		// stays usable.
		logging.ErrorLogger.Error("generation failed",
			zap.String("chat_id", o.cfg.ChatID), zap.Error(err))
		reply.Content = errorReplyPrefix + err.Error()
	} else {
		reply.Content = text
		o.persistMessage(types.SenderAssistant, text)
	}

	o.mu.Lock()
	if o.closed {
		// The session was torn down mid-flight; discard the update.
		o.mu.Unlock()
		return
	}
	o.entries = append(o.entries, reply)
	o.transition(phaseReady)
	titleSnapshot := append([]types.TranscriptEntry(nil), o.entries...)
	o.mu.Unlock()

	if triggerTitle && err == nil {
		// Title generation includes the just-received reply and never
		// surfaces in the conversation.
		go func() {
			tctx, cancel := context.WithTimeout(context.Background(), titleGenTimeout)
			defer cancel()
			if _, terr := o.titles.GenerateTitle(tctx, o.cfg.ChatID, titleSnapshot); terr != nil {
				logging.AppLogger.Warn("title generation failed",
					zap.String("chat_id", o.cfg.ChatID), zap.Error(terr))
			}
		}()
	}
}

// CurrentState is the pull-based snapshot for the presentation layer; safe
// to call at any time, including mid-flight.
func (o *Orchestrator) CurrentState() types.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	state := types.SessionState{
		Transcript:   append([]types.TranscriptEntry(nil), o.entries...),
		IsResponding: o.phase == phaseResponding,
		LoadError:    o.loadError,
	}
	if o.tutorial != nil && o.tutorial.Active() {
		state.TutorialView = o.tutorial.View()
	}
	return state
}

// Close marks the session torn down. In-flight gateway results arriving
// afterwards are discarded.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

func (o *Orchestrator) persistMessage(sender, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := o.store.AppendMessage(ctx, o.cfg.ChatID, o.cfg.UserID, sender, content, o.cfg.Model); err != nil {
		logging.ErrorLogger.Error("message persist failed",
			zap.String("chat_id", o.cfg.ChatID), zap.String("sender", sender), zap.Error(err))
	}
}

func (o *Orchestrator) completeOnboarding(ctx context.Context) {
	if err := o.profile.SetOnboardingStatus(ctx, o.cfg.UserID); err != nil {
		logging.ErrorLogger.Error("onboarding status persist failed",
			zap.Int("user_id", o.cfg.UserID), zap.Error(err))
	}
}
