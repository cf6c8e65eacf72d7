// Package mongodb persists mood actions and saved suggestions, and serves
// the user-preferred suggestion source from past activity.
package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"moodmate/internal/domain"
)

const (
	moodCollection       = "moods"
	suggestionCollection = "usersuggestions"
)

// Store implements ports.HistoryStore on a MongoDB database.
type Store struct {
	moods       *mongo.Collection
	suggestions *mongo.Collection
}

// Connect dials MongoDB and returns a store plus a close function.
func Connect(ctx context.Context, uri, database string) (*Store, func(context.Context) error, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, nil, fmt.Errorf("mongodb URI is not configured")
	}
	if database == "" {
		database = "moodmate"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(database)
	store := &Store{
		moods:       db.Collection(moodCollection),
		suggestions: db.Collection(suggestionCollection),
	}
	return store, client.Disconnect, nil
}

// Actions returns the distinct actions the user previously saved for a mood,
// most recent first.
func (s *Store) Actions(ctx context.Context, userID, mood string) ([]string, error) {
	filter := bson.M{"id": userID, "mood": strings.ToLower(mood)}
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(50)

	cursor, err := s.moods.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying mood history: %w", err)
	}
	defer cursor.Close(ctx)

	var actions []string
	seen := make(map[string]struct{})
	for cursor.Next(ctx) {
		var record domain.MoodRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("decoding mood record: %w", err)
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
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating mood history: %w", err)
	}
	return actions, nil
}

// SaveAction records what the user did for a mood.
func (s *Store) SaveAction(ctx context.Context, record domain.MoodRecord) error {
	record.Mood = strings.ToLower(record.Mood)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if _, err := s.moods.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("saving mood action: %w", err)
	}
	return nil
}

// SaveSuggestion records a suggestion the user chose to keep.
func (s *Store) SaveSuggestion(ctx context.Context, record domain.SuggestionRecord) error {
	record.Mood = strings.ToLower(record.Mood)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if _, err := s.suggestions.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("saving suggestion: %w", err)
	}
	return nil
}
