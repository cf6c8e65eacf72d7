package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"moodmate/internal/domain"
	"moodmate/internal/ports"
)

var (
	ErrNoActiveSession = errors.New("no active voice session")
	ErrSessionActive   = errors.New("voice session already active")
)

const (
	moodQuestion = "How's your mood today?"
	moodFallback = "Sorry, I didn't catch your mood. Please try again."
)

// Config controls voice dialogue behavior.
type Config struct {
	UserID         string
	Recognition    ports.RecognitionConfig
	TypingInterval time.Duration
}

// VoiceAgent drives the wake word -> mood -> free-form request dialogue. It
// owns the dialogue state, the conversation log and the speaking flag;
// listening and speaking are mutually exclusive.
type VoiceAgent struct {
	recognizer ports.Recognizer
	synth      ports.Synthesizer
	suggester  ports.Suggester
	normalizer ports.Normalizer
	events     ports.EventSink
	typer      *typewriter
	cfg        Config

	mu            sync.Mutex
	session       *voiceSession
	state         domain.DialogueState
	speaking      bool
	speechEnabled bool
	turns         []domain.ConversationTurn
}

func NewVoiceAgent(
	recognizer ports.Recognizer,
	synth ports.Synthesizer,
	suggester ports.Suggester,
	normalizer ports.Normalizer,
	events ports.EventSink,
	cfg Config,
) *VoiceAgent {
	return &VoiceAgent{
		recognizer: recognizer,
		synth:      synth,
		suggester:  suggester,
		normalizer: normalizer,
		events:     events,
		typer:      newTypewriter(events, cfg.TypingInterval),
		cfg:        cfg,
	}
}

// Start begins a new voice session in the wake-word state.
func (a *VoiceAgent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.session != nil {
		a.mu.Unlock()
		return ErrSessionActive
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	session := &voiceSession{ctx: sessionCtx, cancel: cancel}
	a.session = session
	a.state = domain.StateAwaitingWakeWord
	a.mu.Unlock()

	if err := a.startListening(session); err != nil {
		a.mu.Lock()
		a.session = nil
		a.mu.Unlock()
		cancel()
		return err
	}

	a.events.DialogueStateChanged(domain.StateAwaitingWakeWord, domain.ReasonSessionStarted)
	return nil
}

// Stop tears the session down: recognition is aborted, pending typing
// animation is cancelled.
func (a *VoiceAgent) Stop() error {
	a.mu.Lock()
	session := a.session
	if session == nil {
		a.mu.Unlock()
		return ErrNoActiveSession
	}
	a.session = nil
	recognition := session.recognition
	session.recognition = nil
	a.state = domain.StateAwaitingWakeWord
	a.speaking = false
	a.mu.Unlock()

	session.cancel()
	if recognition != nil {
		_ = recognition.Abort()
	}
	a.typer.Stop()

	a.events.DialogueStateChanged(domain.StateAwaitingWakeWord, domain.ReasonSessionStopped)
	return nil
}

// EnableSpeech unlocks audio output. Until called, synthesis is a silent
// no-op per platform autoplay rules, but listening still resumes afterwards.
func (a *VoiceAgent) EnableSpeech() {
	a.mu.Lock()
	a.speechEnabled = true
	a.mu.Unlock()
}

// InjectMood feeds an externally detected mood (camera path) into the same
// handling used for spoken moods.
func (a *VoiceAgent) InjectMood(mood domain.MoodLabel) error {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil || session.ctx.Err() != nil {
		return ErrNoActiveSession
	}

	a.handleMood(session, mood, domain.ReasonMoodInjected)
	return nil
}

// Status returns the current session status.
func (a *VoiceAgent) Status() domain.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	active := a.session != nil
	return domain.Status{
		State:     a.state,
		Active:    active,
		Listening: active && a.session.recognition != nil && !a.speaking,
		Speaking:  a.speaking,
	}
}

// Conversation returns a snapshot of the conversation log.
func (a *VoiceAgent) Conversation() []domain.ConversationTurn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.ConversationTurn, len(a.turns))
	copy(out, a.turns)
	return out
}

// startListening begins a recognition session unless one is already running
// or the agent is speaking; both cases are no-ops, not errors.
func (a *VoiceAgent) startListening(session *voiceSession) error {
	a.mu.Lock()
	if a.session != session || a.speaking || session.recognition != nil {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	recognition, err := a.recognizer.Start(session.ctx, a.cfg.Recognition)
	if err != nil {
		a.events.AgentError(domain.ErrorCodeRecognition, err.Error())
		return err
	}

	a.mu.Lock()
	if a.session != session || a.speaking {
		a.mu.Unlock()
		_ = recognition.Abort()
		return nil
	}
	session.recognition = recognition
	a.mu.Unlock()

	go a.consumeUtterances(session, recognition)
	return nil
}

func (a *VoiceAgent) consumeUtterances(session *voiceSession, recognition ports.RecognitionSession) {
	for text := range recognition.Utterances() {
		a.handleUtterance(session, text)
	}

	if err := recognition.Wait(); err != nil && session.ctx.Err() == nil {
		a.events.AgentError(domain.ErrorCodeRecognition, err.Error())
	}

	a.mu.Lock()
	if session.recognition == recognition {
		session.recognition = nil
	}
	a.mu.Unlock()
}

func (a *VoiceAgent) handleUtterance(session *voiceSession, raw string) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return
	}
	if a.normalizer != nil {
		if normalized, err := a.normalizer.Apply(text); err == nil {
			text = strings.ToLower(normalized)
		}
	}

	a.mu.Lock()
	if a.session != session || a.speaking {
		a.mu.Unlock()
		return
	}
	state := a.state
	a.mu.Unlock()

	a.appendUserTurn(text)

	// The wake phrase restarts the mood cycle from any state.
	if MatchesWake(text) {
		a.speak(session, moodQuestion, func() {
			a.setState(session, domain.StateAwaitingMood, domain.ReasonWakeDetected)
		})
		return
	}

	switch state {
	case domain.StateAwaitingWakeWord:
		// Keep listening until the wake phrase shows up.
	case domain.StateAwaitingMood:
		mood, ok := domain.DetectMood(text)
		if !ok {
			a.events.DialogueStateChanged(domain.StateAwaitingMood, domain.ReasonMoodNotRecognized)
			a.speak(session, moodFallback, nil)
			return
		}
		a.handleMood(session, mood, domain.ReasonMoodDetected)
	case domain.StateAwaitingRequest:
		reply := a.suggester.Respond(session.ctx, text)
		a.events.DialogueStateChanged(domain.StateAwaitingRequest, domain.ReasonRequestAnswered)
		a.speak(session, reply, nil)
	}
}

func (a *VoiceAgent) handleMood(session *voiceSession, mood domain.MoodLabel, reason domain.DialogueReason) {
	a.events.MoodDetected(mood)

	set := a.suggester.Aggregate(session.ctx, a.cfg.UserID, string(mood))
	a.events.SuggestionsReady(set)

	a.setState(session, domain.StateAwaitingRequest, reason)
	a.speak(session, moodReply(mood, set.Generative[0]), nil)
}

// speak aborts any in-flight recognition, marks the agent speaking and runs
// synthesis in the background. Listening resumes only once synthesis has
// completed; that is the single resumption point.
func (a *VoiceAgent) speak(session *voiceSession, text string, onDone func()) {
	a.mu.Lock()
	if recognition := session.recognition; recognition != nil {
		// Abort failures are swallowed: the session supersedes them anyway.
		_ = recognition.Abort()
		session.recognition = nil
	}
	a.speaking = true
	enabled := a.speechEnabled
	a.mu.Unlock()

	a.appendAgentTurn(text)

	go func() {
		if enabled {
			if err := a.synth.Speak(session.ctx, text); err != nil && session.ctx.Err() == nil {
				a.events.AgentError(domain.ErrorCodeSynthesis, err.Error())
			}
		}

		a.mu.Lock()
		a.speaking = false
		a.mu.Unlock()

		if onDone != nil {
			onDone()
		}
		if session.ctx.Err() == nil {
			_ = a.startListening(session)
		}
	}()
}

func (a *VoiceAgent) setState(session *voiceSession, state domain.DialogueState, reason domain.DialogueReason) {
	a.mu.Lock()
	if a.session != session {
		a.mu.Unlock()
		return
	}
	a.state = state
	a.mu.Unlock()
	a.events.DialogueStateChanged(state, reason)
}

func (a *VoiceAgent) appendUserTurn(text string) {
	turn := domain.ConversationTurn{Speaker: domain.SpeakerUser, Text: text, Timestamp: time.Now()}
	a.mu.Lock()
	a.turns = append(a.turns, turn)
	a.mu.Unlock()
	a.events.TurnAppended(turn)
}

// appendAgentTurn records the full reply in the log but announces an empty
// turn; the typewriter reveals the text incrementally.
func (a *VoiceAgent) appendAgentTurn(text string) {
	turn := domain.ConversationTurn{Speaker: domain.SpeakerAgent, Text: text, Timestamp: time.Now()}
	a.mu.Lock()
	a.turns = append(a.turns, turn)
	a.mu.Unlock()

	a.events.TurnAppended(domain.ConversationTurn{Speaker: domain.SpeakerAgent, Timestamp: turn.Timestamp})
	a.typer.Reveal(text)
}

func moodReply(mood domain.MoodLabel, suggestion string) string {
	if mood.IsPositive() {
		return fmt.Sprintf(
			"Awesome! Since you're feeling %s, how about %s? Here are some more suggestions displayed. Tell me now how may I help you?",
			mood, suggestion,
		)
	}
	return fmt.Sprintf(
		"Come on, don't be %s, you can %s. Here are some more suggestions displayed. Tell me now how may I help you?",
		mood, suggestion,
	)
}
