package usecase

import (
	"context"

	"moodmate/internal/ports"
)

// voiceSession is the per-session mutable context: its lifetime context and
// the recognition handle, if one is currently listening.
type voiceSession struct {
	ctx    context.Context
	cancel context.CancelFunc

	recognition ports.RecognitionSession
}
