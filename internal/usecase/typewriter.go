package usecase

import (
	"sync"
	"time"

	"moodmate/internal/ports"
)

const defaultTypingInterval = 30 * time.Millisecond

// typewriter reveals agent replies character by character through the event
// sink. It is a purely presentational animation: starting a new reveal
// supersedes the previous one (last-write-wins on the displayed turn).
type typewriter struct {
	events   ports.EventSink
	interval time.Duration

	mu         sync.Mutex
	generation int
}

func newTypewriter(events ports.EventSink, interval time.Duration) *typewriter {
	if interval <= 0 {
		interval = defaultTypingInterval
	}
	return &typewriter{events: events, interval: interval}
}

// Reveal starts typing out text, replacing any reveal still in progress.
func (t *typewriter) Reveal(text string) {
	t.mu.Lock()
	t.generation++
	generation := t.generation
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		runes := []rune(text)
		for i := 1; i <= len(runes); i++ {
			<-ticker.C
			if !t.emit(generation, string(runes[:i])) {
				return
			}
		}
	}()
}

// Stop cancels any reveal in progress.
func (t *typewriter) Stop() {
	t.mu.Lock()
	t.generation++
	t.mu.Unlock()
}

// emit forwards one prefix unless the reveal has been superseded.
func (t *typewriter) emit(generation int, text string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation {
		return false
	}
	t.events.TurnRevealed(text)
	return true
}
