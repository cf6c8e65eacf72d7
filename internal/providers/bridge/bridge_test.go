package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"moodmate/internal/ports"
)

func TestSynthesizerSpeakBlocksUntilDone(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var emittedID, emittedText string
	synth := NewSynthesizer(func(id, text string) {
		mu.Lock()
		emittedID, emittedText = id, text
		mu.Unlock()
	})

	finished := make(chan error, 1)
	go func() {
		finished <- synth.Speak(context.Background(), "how about a walk?")
	}()

	var id string
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		id = emittedID
		mu.Unlock()
		if id != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("utterance was never emitted")
		}
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	text := emittedText
	mu.Unlock()
	if text != "how about a walk?" {
		t.Fatalf("unexpected emitted text: %q", text)
	}

	select {
	case err := <-finished:
		t.Fatalf("speak returned before completion: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	synth.Done(id)
	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("speak failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("speak did not return after completion")
	}
}

func TestSynthesizerCancelledSpeakIgnoresLateDone(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var id string
	synth := NewSynthesizer(func(emittedID, _ string) {
		mu.Lock()
		id = emittedID
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := synth.Speak(ctx, "never played"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}

	mu.Lock()
	late := id
	mu.Unlock()
	synth.Done(late)
	synth.Done("unknown-id")
}

func TestRecognizerPushReachesActiveSession(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	r.Push("dropped before start")

	sess, err := r.Start(context.Background(), ports.RecognitionConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	r.Push("hey proton")
	select {
	case got := <-sess.Utterances():
		if got != "hey proton" {
			t.Fatalf("unexpected transcript: %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("transcript was not delivered")
	}
}

func TestRecognizerAbortDropsPushesAndWaitsNil(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	sess, err := r.Start(context.Background(), ports.RecognitionConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := sess.Abort(); err != nil {
		t.Fatalf("abort failed: %v", err)
	}
	if err := sess.Abort(); err != nil {
		t.Fatalf("second abort failed: %v", err)
	}
	r.Push("after abort")

	if _, open := <-sess.Utterances(); open {
		t.Fatalf("expected utterance channel to be closed")
	}
	if err := sess.Wait(); err != nil {
		t.Fatalf("aborted wait should be nil, got %v", err)
	}
}

func TestRecognizerStartReplacesPreviousSession(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	first, err := r.Start(context.Background(), ports.RecognitionConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	second, err := r.Start(context.Background(), ports.RecognitionConfig{})
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}

	if err := first.Wait(); err != nil {
		t.Fatalf("replaced session should end cleanly, got %v", err)
	}

	r.Push("for the new session")
	select {
	case got := <-second.Utterances():
		if got != "for the new session" {
			t.Fatalf("unexpected transcript: %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("transcript was not delivered to replacement session")
	}
}

func TestRecognizerFailSurfacesThroughWait(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	sess, err := r.Start(context.Background(), ports.RecognitionConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	boom := errors.New("microphone permission denied")
	r.Fail(boom)

	if err := sess.Wait(); !errors.Is(err, boom) {
		t.Fatalf("expected failure from wait, got %v", err)
	}
}

func TestRecognizerContextCancelAbortsSession(t *testing.T) {
	t.Parallel()

	r := NewRecognizer()
	ctx, cancel := context.WithCancel(context.Background())
	sess, err := r.Start(ctx, ports.RecognitionConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	cancel()
	done := make(chan error, 1)
	go func() { done <- sess.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled session should wait nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not end after context cancel")
	}
}
