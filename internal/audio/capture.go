// Package audio captures raw microphone PCM for the headless voice daemon.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// Config describes how the microphone should be captured.
type Config struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
}

// FFmpegCapture shells out to ffmpeg and streams s16le PCM from stdin-less
// capture of the configured input device.
type FFmpegCapture struct {
	cfg Config
}

func NewFFmpegCapture(cfg Config) *FFmpegCapture {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &FFmpegCapture{cfg: cfg}
}

// Start launches the capture process. The returned stream yields PCM until
// Stop is called or the process exits.
func (c *FFmpegCapture) Start(ctx context.Context) (*Stream, error) {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", c.cfg.InputFormat,
		"-i", c.cfg.InputDevice,
		"-ac", strconv.Itoa(c.cfg.Channels),
		"-ar", strconv.Itoa(c.cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.cfg.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", c.cfg.Command, err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	// Catch immediate failures (bad device, missing binary flags) up front.
	select {
	case err := <-exited:
		detail := bytes.TrimSpace(stderr.Bytes())
		if err == nil {
			err = errors.New("capture process exited early")
		}
		return nil, fmt.Errorf("%s exited before capture started: %w: %s", c.cfg.Command, err, detail)
	case <-time.After(250 * time.Millisecond):
	}

	return &Stream{stdout: stdout, process: cmd.Process, exited: exited}, nil
}

// Stream is a live microphone capture.
type Stream struct {
	stdout  io.ReadCloser
	process *os.Process
	exited  <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Stop interrupts the capture process, escalating to a kill if it does not
// exit promptly. Normal exit statuses are not errors.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err := <-s.exited:
			s.stopErr = ignoreExitStatus(err)
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			s.stopErr = ignoreExitStatus(<-s.exited)
		}

		_ = s.stdout.Close()
	})
	return s.stopErr
}

func ignoreExitStatus(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
