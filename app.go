package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"moodmate/internal/bootstrap"
	"moodmate/internal/config"
	"moodmate/internal/domain"
	"moodmate/internal/ports"
	"moodmate/internal/providers/bridge"
	"moodmate/internal/usecase"
)

const (
	eventState       = "moodmate:state"
	eventTurn        = "moodmate:turn"
	eventReveal      = "moodmate:reveal"
	eventMood        = "moodmate:mood"
	eventSuggestions = "moodmate:suggestions"
	eventSpeak       = "moodmate:speak"
	eventError       = "moodmate:error"
)

// App is the Wails application root. The frontend performs speech
// recognition and synthesis through the browser APIs; transcripts come in
// through SubmitTranscript and utterances go out on the speak event.
type App struct {
	ctx context.Context

	agent      *usecase.VoiceAgent
	suggester  ports.Suggester
	history    ports.HistoryStore
	recognizer *bridge.Recognizer
	synth      *bridge.Synthesizer
	cfg        config.Config
	bootErr    error
	closeDB    func(context.Context) error
}

func NewApp() *App {
	a := &App{}
	a.recognizer = bridge.NewRecognizer()
	a.synth = bridge.NewSynthesizer(func(utteranceID, text string) {
		if a.ctx == nil {
			return
		}
		runtime.EventsEmit(a.ctx, eventSpeak, map[string]string{
			"id":   utteranceID,
			"text": text,
		})
	})
	return a
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(ctx, a, a.recognizer, a.synth)
	if err != nil {
		a.bootErr = err
		a.AgentError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.agent = services.Agent
	a.suggester = services.Suggester
	a.history = services.History
	a.cfg = services.Config
	a.closeDB = services.Close
}

func (a *App) shutdown(ctx context.Context) {
	if a.agent != nil {
		_ = a.agent.Stop()
	}
	if a.closeDB != nil {
		_ = a.closeDB(ctx)
	}
}

// StartVoice begins a voice session listening for the wake word.
func (a *App) StartVoice() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.agent.Start(a.ctx); err != nil {
		if errors.Is(err, usecase.ErrSessionActive) {
			return a.agent.Status(), nil
		}
		a.AgentError(domain.ErrorCodeRecognition, err.Error())
		return domain.Status{}, err
	}
	return a.agent.Status(), nil
}

// StopVoice ends the voice session.
func (a *App) StopVoice() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.agent.Stop(); err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			return nil
		}
		return err
	}
	return nil
}

// EnableSpeech unlocks audio output after the first user gesture.
func (a *App) EnableSpeech() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.agent.EnableSpeech()
	return nil
}

// SubmitTranscript feeds a recognized transcript from the frontend into the
// dialogue. Transcripts arriving while the agent is not listening are
// dropped.
func (a *App) SubmitTranscript(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.recognizer.Push(text)
	return nil
}

// SpeechDone reports that the frontend finished playing an utterance.
func (a *App) SpeechDone(utteranceID string) {
	a.synth.Done(utteranceID)
}

// ReportRecognitionError surfaces a frontend speech recognition failure.
func (a *App) ReportRecognitionError(detail string) {
	a.recognizer.Fail(errors.New(detail))
}

// DetectedMood injects a mood detected outside the dialogue, such as the
// camera expression detector.
func (a *App) DetectedMood(mood string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	label, ok := domain.ParseMood(mood)
	if !ok {
		return fmt.Errorf("unknown mood %q", mood)
	}
	if err := a.agent.InjectMood(label); err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			return err
		}
		a.AgentError(domain.ErrorCodeRecognition, err.Error())
		return err
	}
	return nil
}

// GetSuggestions aggregates suggestions for a mood on demand.
func (a *App) GetSuggestions(mood string) (domain.SuggestionSet, error) {
	if err := a.requireReady(); err != nil {
		return domain.SuggestionSet{}, err
	}
	return a.suggester.Aggregate(a.ctx, a.cfg.User.ID, mood), nil
}

// ElaborateSuggestion fetches details for one suggestion.
func (a *App) ElaborateSuggestion(suggestion string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	return a.suggester.Elaborate(a.ctx, suggestion), nil
}

// SaveMoodAction records what the user did for a mood.
func (a *App) SaveMoodAction(mood, action string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	record := domain.MoodRecord{
		ID:        uuid.NewString(),
		UserID:    a.cfg.User.ID,
		Mood:      mood,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.history.SaveAction(a.ctx, record); err != nil {
		a.AgentError(domain.ErrorCodeHistory, err.Error())
		return err
	}
	return nil
}

// SaveSuggestion records a suggestion the user chose to keep.
func (a *App) SaveSuggestion(mood, suggestion string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	record := domain.SuggestionRecord{
		ID:         uuid.NewString(),
		UserID:     a.cfg.User.ID,
		Mood:       mood,
		Suggestion: suggestion,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.history.SaveSuggestion(a.ctx, record); err != nil {
		a.AgentError(domain.ErrorCodeHistory, err.Error())
		return err
	}
	return nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.agent == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.StateAwaitingWakeWord, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.StateAwaitingWakeWord}
	}
	return a.agent.Status()
}

// GetConversation returns the conversation log.
func (a *App) GetConversation() []domain.ConversationTurn {
	if a.agent == nil {
		return nil
	}
	return a.agent.Conversation()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	generative := "disabled"
	if a.cfg.Gemini.APIKey != "" {
		generative = a.cfg.Gemini.Model
	}
	historyBackend := "memory"
	if a.cfg.Mongo.URI != "" {
		historyBackend = "mongodb"
	}
	return map[string]string{
		"userId":     a.cfg.User.ID,
		"generative": generative,
		"history":    historyBackend,
		"mlService":  a.cfg.ML.BaseURL,
		"rulesFile":  a.cfg.Rules.Path,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.agent == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// DialogueStateChanged emits dialogue lifecycle updates to the frontend.
func (a *App) DialogueStateChanged(state domain.DialogueState, reason domain.DialogueReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventState, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": dialogueReasonMessage(reason),
	})
}

// TurnAppended emits a new conversation turn.
func (a *App) TurnAppended(turn domain.ConversationTurn) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTurn, map[string]string{
		"speaker":   string(turn.Speaker),
		"text":      turn.Text,
		"timestamp": turn.Timestamp.Format(time.RFC3339),
	})
}

// TurnRevealed emits the growing prefix of the agent turn being typed out.
func (a *App) TurnRevealed(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventReveal, map[string]string{"text": text})
}

// MoodDetected emits the recognized mood.
func (a *App) MoodDetected(mood domain.MoodLabel) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventMood, map[string]string{"mood": string(mood)})
}

// SuggestionsReady emits a freshly aggregated suggestion set.
func (a *App) SuggestionsReady(set domain.SuggestionSet) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSuggestions, set)
}

// AgentError emits backend errors to the UI.
func (a *App) AgentError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func dialogueReasonMessage(reason domain.DialogueReason) string {
	switch reason {
	case domain.ReasonSessionStarted:
		return "Listening for wake word"
	case domain.ReasonSessionStopped:
		return "Voice session stopped"
	case domain.ReasonWakeDetected:
		return "Wake word detected"
	case domain.ReasonMoodDetected:
		return "Mood detected"
	case domain.ReasonMoodNotRecognized:
		return "Mood not recognized"
	case domain.ReasonMoodInjected:
		return "Mood detected from camera"
	case domain.ReasonRequestAnswered:
		return "Request answered"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeRecognition:
		return "Speech recognition error"
	case domain.ErrorCodeSynthesis:
		return "Speech synthesis error"
	case domain.ErrorCodeHistory:
		return "Could not reach mood history"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

var _ ports.EventSink = (*App)(nil)
