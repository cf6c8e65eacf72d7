package bridge

import (
	"context"
	"sync"

	"moodmate/internal/ports"
)

// Recognizer implements ports.Recognizer for frontend-driven recognition.
// The browser runs the speech API and pushes transcripts here; starting and
// stopping only gates whether pushes are delivered.
type Recognizer struct {
	mu      sync.Mutex
	current *session
}

func NewRecognizer() *Recognizer {
	return &Recognizer{}
}

// Start opens a push session. A previous session is aborted first so
// transcripts never land on a stale consumer.
func (r *Recognizer) Start(ctx context.Context, _ ports.RecognitionConfig) (ports.RecognitionSession, error) {
	next := &session{
		utterances: make(chan string, 16),
		done:       make(chan struct{}),
	}

	r.mu.Lock()
	previous := r.current
	r.current = next
	r.mu.Unlock()

	if previous != nil {
		_ = previous.Abort()
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = next.Abort()
		case <-next.done:
		}
	}()

	return next, nil
}

// Push delivers a transcript to the active session. Pushes while no session
// is listening are dropped, mirroring a microphone that is not recording.
func (r *Recognizer) Push(transcript string) {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()

	if current != nil {
		current.push(transcript)
	}
}

// Fail ends the active session with a recognition error.
func (r *Recognizer) Fail(err error) {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()

	if current != nil {
		current.fail(err)
	}
}

type session struct {
	utterances chan string
	done       chan struct{}

	mu      sync.Mutex
	aborted bool
	closed  bool
	err     error
}

func (s *session) Utterances() <-chan string { return s.utterances }

func (s *session) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.aborted = true
	s.closed = true
	close(s.utterances)
	close(s.done)
	return nil
}

func (s *session) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return nil
	}
	return s.err
}

func (s *session) push(transcript string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.utterances <- transcript:
	default:
	}
}

func (s *session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.err = err
	s.closed = true
	close(s.utterances)
	close(s.done)
}
