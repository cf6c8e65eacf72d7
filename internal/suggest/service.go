// Package suggest aggregates activity suggestions from three independent
// sources: the user's saved history, an ML classifier service and a
// generative-text service. No source failure ever escapes the package
// boundary; exhausted sources degrade to placeholder text.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"moodmate/internal/domain"
	"moodmate/internal/ports"
)

const (
	placeholderHistory    = "No suggestions yet."
	placeholderClassifier = "No ML suggestions yet."
	placeholderGenerative = "No Gemini suggestions yet."

	elaborateFailure = "Sorry, I couldn't fetch details for that suggestion right now."
	respondFailure   = "Sorry, I don't have an answer for that."
)

const (
	suggestPromptTemplate = `The user is in a %q mood. Suggest 5 fresh, engaging activities, movies, or books they might enjoy. Keep them short and varied, separated by commas.`

	elaboratePromptTemplate = `The user selected %q. Provide 5 short, specific recommendations related to this selection. Focus only on examples, titles, or concrete items, not explanations. Keep them concise, actionable, and directly relevant.`

	respondPromptTemplate = `The user asked: %q. Provide exactly 5 unique titles if it's about songs, movies, or books, or a short, relevant reply for other requests. Avoid repetition, keep responses short.`
)

// Config bounds each external call. Exceeding a timeout aborts that single
// call only.
type Config struct {
	HistoryTimeout    time.Duration
	ClassifierTimeout time.Duration
	GenerateTimeout   time.Duration
	ElaborateTimeout  time.Duration
	RespondTimeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.HistoryTimeout <= 0 {
		c.HistoryTimeout = 5 * time.Second
	}
	if c.ClassifierTimeout <= 0 {
		c.ClassifierTimeout = 5 * time.Second
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = 5 * time.Second
	}
	if c.ElaborateTimeout <= 0 {
		c.ElaborateTimeout = 7 * time.Second
	}
	if c.RespondTimeout <= 0 {
		c.RespondTimeout = 7 * time.Second
	}
}

// Service implements ports.Suggester. It is stateless per call: every
// aggregation is a fresh fan-out, no caching, no retries.
type Service struct {
	history    ports.HistoryStore
	classifier ports.Classifier
	generator  ports.Generator
	cfg        Config
}

func NewService(history ports.HistoryStore, classifier ports.Classifier, generator ports.Generator, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{history: history, classifier: classifier, generator: generator, cfg: cfg}
}

// Aggregate queries all three sources concurrently and returns a
// SuggestionSet whose lists are never empty.
func (s *Service) Aggregate(ctx context.Context, userID string, mood string) domain.SuggestionSet {
	mood = strings.ToLower(strings.TrimSpace(mood))

	var (
		wg         sync.WaitGroup
		preferred  []string
		classified []string
		generated  []string
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		preferred = s.fetchHistory(ctx, userID, mood)
	}()
	go func() {
		defer wg.Done()
		classified = s.fetchClassified(ctx, mood)
	}()
	go func() {
		defer wg.Done()
		generated = s.fetchGenerated(ctx, mood)
	}()
	wg.Wait()

	return domain.SuggestionSet{
		UserPreferred: orPlaceholder(preferred, placeholderHistory),
		MLBased:       orPlaceholder(classified, placeholderClassifier),
		Generative:    orPlaceholder(generated, placeholderGenerative),
	}
}

// Elaborate asks the generative service for concrete follow-ups on a single
// suggestion and returns an opaque text blob. It never fails past its
// boundary: unreachable services yield a generic failure message.
func (s *Service) Elaborate(ctx context.Context, suggestion string) string {
	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		return elaborateFailure
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ElaborateTimeout)
	defer cancel()

	text, err := s.generator.Generate(callCtx, fmt.Sprintf(elaboratePromptTemplate, suggestion))
	if err != nil || strings.TrimSpace(text) == "" {
		return elaborateFailure
	}
	return text
}

// Respond forwards a free-form user request to the generative service and
// returns a plain reply string, degrading to a canned apology on failure.
func (s *Service) Respond(ctx context.Context, request string) string {
	request = strings.TrimSpace(request)
	if request == "" {
		return respondFailure
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RespondTimeout)
	defer cancel()

	text, err := s.generator.Generate(callCtx, fmt.Sprintf(respondPromptTemplate, request))
	if err != nil || strings.TrimSpace(text) == "" {
		return respondFailure
	}
	return strings.TrimSpace(text)
}

func (s *Service) fetchHistory(ctx context.Context, userID string, mood string) []string {
	if userID == "" {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.HistoryTimeout)
	defer cancel()

	actions, err := s.history.Actions(callCtx, userID, mood)
	if err != nil {
		return nil
	}
	return actions
}

func (s *Service) fetchClassified(ctx context.Context, mood string) []string {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ClassifierTimeout)
	defer cancel()

	suggestions, err := s.classifier.Suggest(callCtx, mood)
	if err != nil {
		return nil
	}
	return suggestions
}

func (s *Service) fetchGenerated(ctx context.Context, mood string) []string {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	text, err := s.generator.Generate(callCtx, fmt.Sprintf(suggestPromptTemplate, mood))
	if err != nil {
		return nil
	}
	return SplitSuggestions(text)
}

// SplitSuggestions parses generative output into a list: fragments are split
// on commas and newlines, trimmed, and empties dropped.
func SplitSuggestions(text string) []string {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	out := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if trimmed := strings.TrimSpace(fragment); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func orPlaceholder(list []string, placeholder string) []string {
	if len(list) == 0 {
		return []string{placeholder}
	}
	return list
}
