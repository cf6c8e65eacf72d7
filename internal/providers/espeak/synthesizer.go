// Package espeak speaks agent replies through the espeak-ng binary. Used by
// the headless daemon where no browser speech synthesis is available.
package espeak

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Config controls the espeak-ng invocation.
type Config struct {
	Command string
	Voice   string
	Rate    int
}

// Synthesizer implements ports.Synthesizer by shelling out per utterance.
type Synthesizer struct {
	cfg Config
}

func NewSynthesizer(cfg Config) *Synthesizer {
	if cfg.Command == "" {
		cfg.Command = "espeak-ng"
	}
	if cfg.Voice == "" {
		cfg.Voice = "en-US"
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 160
	}
	return &Synthesizer{cfg: cfg}
}

// Speak blocks until playback finishes or the context is cancelled.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	args := []string{
		"-v", s.cfg.Voice,
		"-s", strconv.Itoa(s.cfg.Rate),
		"--stdin",
	}

	cmd := exec.CommandContext(ctx, s.cfg.Command, args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail := bytes.TrimSpace(stderr.Bytes())
		if len(detail) > 0 {
			return fmt.Errorf("%s failed: %w: %s", s.cfg.Command, err, detail)
		}
		return fmt.Errorf("%s failed: %w", s.cfg.Command, err)
	}
	return nil
}
