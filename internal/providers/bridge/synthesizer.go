// Package bridge adapts browser speech APIs to the voice ports. The frontend
// performs the actual recognition and synthesis; these providers move
// transcripts and utterances across the runtime boundary.
package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EmitFunc delivers an utterance to the frontend for playback.
type EmitFunc func(utteranceID, text string)

// Synthesizer implements ports.Synthesizer by handing text to the frontend
// and blocking until it reports playback completion.
type Synthesizer struct {
	emit EmitFunc

	mu      sync.Mutex
	pending map[string]chan struct{}
}

func NewSynthesizer(emit EmitFunc) *Synthesizer {
	return &Synthesizer{emit: emit, pending: make(map[string]chan struct{})}
}

// Speak blocks until the frontend calls Done with the utterance ID or the
// context is cancelled.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	id := uuid.NewString()
	done := make(chan struct{})

	s.mu.Lock()
	s.pending[id] = done
	s.mu.Unlock()

	s.emit(id, text)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		return ctx.Err()
	}
}

// Done signals that playback of an utterance finished. Unknown IDs are
// ignored so late callbacks after cancellation are harmless.
func (s *Synthesizer) Done(utteranceID string) {
	s.mu.Lock()
	done, ok := s.pending[utteranceID]
	if ok {
		delete(s.pending, utteranceID)
	}
	s.mu.Unlock()

	if ok {
		close(done)
	}
}
