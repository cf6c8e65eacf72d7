package domain

import (
	"strings"
	"time"
)

// MoodLabel is one of the fixed emotional states the tracker recognizes.
type MoodLabel string

const (
	MoodHappy     MoodLabel = "happy"
	MoodSad       MoodLabel = "sad"
	MoodAngry     MoodLabel = "angry"
	MoodExcited   MoodLabel = "excited"
	MoodTired     MoodLabel = "tired"
	MoodAnxious   MoodLabel = "anxious"
	MoodBored     MoodLabel = "bored"
	MoodSurprised MoodLabel = "surprised"
	MoodFear      MoodLabel = "fear"
	MoodNeutral   MoodLabel = "neutral"
)

// Moods returns every recognized mood in detection priority order.
func Moods() []MoodLabel {
	return []MoodLabel{
		MoodHappy, MoodSad, MoodAngry, MoodExcited, MoodTired,
		MoodAnxious, MoodBored, MoodSurprised, MoodFear, MoodNeutral,
	}
}

// IsPositive reports whether replies about this mood use the upbeat branch.
func (m MoodLabel) IsPositive() bool {
	switch m {
	case MoodHappy, MoodExcited, MoodSurprised:
		return true
	}
	return false
}

// DetectMood scans a transcript for the first recognized mood substring.
// Matching is case-insensitive.
func DetectMood(transcript string) (MoodLabel, bool) {
	lowered := strings.ToLower(transcript)
	for _, mood := range Moods() {
		if strings.Contains(lowered, string(mood)) {
			return mood, true
		}
	}
	return "", false
}

// ParseMood validates an externally supplied mood label (camera detector path).
func ParseMood(value string) (MoodLabel, bool) {
	candidate := MoodLabel(strings.ToLower(strings.TrimSpace(value)))
	for _, mood := range Moods() {
		if candidate == mood {
			return mood, true
		}
	}
	return "", false
}

// DialogueState models where the voice agent is in its script.
type DialogueState string

const (
	StateAwaitingWakeWord DialogueState = "awaiting_wake_word"
	StateAwaitingMood     DialogueState = "awaiting_mood"
	StateAwaitingRequest  DialogueState = "awaiting_request"
)

// DialogueReason provides a structured reason for dialogue state changes.
type DialogueReason string

const (
	ReasonSessionStarted    DialogueReason = "session_started"
	ReasonSessionStopped    DialogueReason = "session_stopped"
	ReasonWakeDetected      DialogueReason = "wake_detected"
	ReasonMoodDetected      DialogueReason = "mood_detected"
	ReasonMoodNotRecognized DialogueReason = "mood_not_recognized"
	ReasonMoodInjected      DialogueReason = "mood_injected"
	ReasonRequestAnswered   DialogueReason = "request_answered"
)

// ErrorCode identifies non-fatal and fatal agent errors.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeRecognition ErrorCode = "recognition"
	ErrorCodeSynthesis   ErrorCode = "synthesis"
	ErrorCodeHistory     ErrorCode = "history"
)

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// ConversationTurn is one entry of the append-only conversation log. Only the
// text of the most recent agent turn is rewritten while it is typed out.
type ConversationTurn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SuggestionSet is the three-way categorized aggregation result. Each list is
// guaranteed non-empty: exhausted sources are replaced by a placeholder.
type SuggestionSet struct {
	UserPreferred []string `json:"userPreferred"`
	MLBased       []string `json:"mlBased"`
	Generative    []string `json:"generative"`
}

// MoodRecord is a persisted (user, mood) -> action pair.
type MoodRecord struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string    `bson:"id" json:"userId"`
	Mood      string    `bson:"mood" json:"mood"`
	Action    string    `bson:"action" json:"action"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// SuggestionRecord is a suggestion the user chose to keep.
type SuggestionRecord struct {
	ID         string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     string    `bson:"userId" json:"userId"`
	Mood       string    `bson:"mood" json:"mood"`
	Suggestion string    `bson:"suggestion" json:"suggestion"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Status summarizes the current voice session.
type Status struct {
	State     DialogueState `json:"state"`
	Active    bool          `json:"active"`
	Listening bool          `json:"listening"`
	Speaking  bool          `json:"speaking"`
	Message   string        `json:"message,omitempty"`
}
