package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"moodmate/internal/domain"
	"moodmate/internal/providers/bridge"
	"moodmate/internal/storage/memory"
)

func TestBuildWithoutBackendsUsesMemoryAndDisabledGenerator(t *testing.T) {
	t.Setenv("MOODMATE_MONGO_URI", "")
	t.Setenv("GEMINI_API_KEY", "")

	services, err := Build(context.Background(), noopEventSink{}, bridge.NewRecognizer(), noopSynthesizer{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer services.Close(context.Background())

	if services.Agent == nil {
		t.Fatalf("expected agent")
	}
	if _, ok := services.History.(*memory.Store); !ok {
		t.Fatalf("expected in-memory history store, got %T", services.History)
	}

	set := services.Suggester.Aggregate(context.Background(), "u1", "sad")
	if len(set.Generative) != 1 || set.Generative[0] != "No Gemini suggestions yet." {
		t.Fatalf("expected generative placeholder, got %v", set.Generative)
	}
}

func TestBuildFailsOnInvalidRules(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "bad.rules")
	if err := os.WriteFile(rules, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("MOODMATE_MONGO_URI", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MOODMATE_RULES_FILE", rules)

	_, err := Build(context.Background(), noopEventSink{}, bridge.NewRecognizer(), noopSynthesizer{})
	if err == nil {
		t.Fatalf("expected build error due to invalid rules")
	}
}

type noopEventSink struct{}

func (noopEventSink) DialogueStateChanged(_ domain.DialogueState, _ domain.DialogueReason) {}
func (noopEventSink) TurnAppended(_ domain.ConversationTurn)                              {}
func (noopEventSink) TurnRevealed(_ string)                                               {}
func (noopEventSink) MoodDetected(_ domain.MoodLabel)                                     {}
func (noopEventSink) SuggestionsReady(_ domain.SuggestionSet)                             {}
func (noopEventSink) AgentError(_ domain.ErrorCode, _ string)                             {}

type noopSynthesizer struct{}

func (noopSynthesizer) Speak(_ context.Context, _ string) error { return nil }
