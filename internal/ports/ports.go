package ports

import (
	"context"

	"moodmate/internal/domain"
)

// RecognitionConfig describes provider-agnostic recognition settings.
type RecognitionConfig struct {
	Language       string
	SampleRate     int
	Channels       int
	InterimResults bool
}

// RecognitionSession is a live speech recognition session. Utterances yields
// complete recognized phrases; the channel closes when the session ends.
type RecognitionSession interface {
	Utterances() <-chan string
	Abort() error
	Wait() error
}

// Recognizer creates speech recognition sessions. At most one session is
// active per voice agent at a time.
type Recognizer interface {
	Start(ctx context.Context, cfg RecognitionConfig) (RecognitionSession, error)
}

// Synthesizer speaks a reply aloud. Speak blocks until playback completes or
// the context is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// HistoryStore reads and appends persisted mood/action pairs.
type HistoryStore interface {
	Actions(ctx context.Context, userID string, mood string) ([]string, error)
	SaveAction(ctx context.Context, record domain.MoodRecord) error
	SaveSuggestion(ctx context.Context, record domain.SuggestionRecord) error
}

// Classifier is the external ML suggestion service.
type Classifier interface {
	Suggest(ctx context.Context, mood string) ([]string, error)
}

// Generator is the external generative-text service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Suggester produces aggregated suggestions and free-form replies. It never
// returns errors: failed sources degrade to placeholder text.
type Suggester interface {
	Aggregate(ctx context.Context, userID string, mood string) domain.SuggestionSet
	Elaborate(ctx context.Context, suggestion string) string
	Respond(ctx context.Context, request string) string
}

// Normalizer cleans up raw transcripts before wake/mood matching.
type Normalizer interface {
	Apply(text string) (string, error)
}

// EventSink emits agent state and conversation updates to the UI.
type EventSink interface {
	DialogueStateChanged(state domain.DialogueState, reason domain.DialogueReason)
	TurnAppended(turn domain.ConversationTurn)
	TurnRevealed(text string)
	MoodDetected(mood domain.MoodLabel)
	SuggestionsReady(set domain.SuggestionSet)
	AgentError(code domain.ErrorCode, detail string)
}
