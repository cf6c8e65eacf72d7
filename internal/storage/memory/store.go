// Package memory is an in-process history store used when no database is
// configured and in tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"moodmate/internal/domain"
)

// Store implements ports.HistoryStore in memory.
type Store struct {
	mu          sync.RWMutex
	moods       []domain.MoodRecord
	suggestions []domain.SuggestionRecord
}

func NewStore() *Store {
	return &Store{}
}

// Actions returns the distinct actions saved for a mood, most recent first.
func (s *Store) Actions(_ context.Context, userID, mood string) ([]string, error) {
	mood = strings.ToLower(mood)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var actions []string
	seen := make(map[string]struct{})
	for i := len(s.moods) - 1; i >= 0; i-- {
		record := s.moods[i]
		if record.UserID != userID || record.Mood != mood {
			continue
		}
		action := strings.TrimSpace(record.Action)
		if action == "" {
			continue
		}
		if _, dup := seen[action]; dup {
			continue
		}
		seen[action] = struct{}{}
		actions = append(actions, action)
	}
	return actions, nil
}

func (s *Store) SaveAction(_ context.Context, record domain.MoodRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Mood = strings.ToLower(record.Mood)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.moods = append(s.moods, record)
	return nil
}

func (s *Store) SaveSuggestion(_ context.Context, record domain.SuggestionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Mood = strings.ToLower(record.Mood)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = append(s.suggestions, record)
	return nil
}

// Suggestions returns the saved suggestions for a user, oldest first.
func (s *Store) Suggestions(userID string) []domain.SuggestionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SuggestionRecord
	for _, record := range s.suggestions {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out
}
