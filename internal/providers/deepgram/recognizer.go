// Package deepgram implements ports.Recognizer over the Deepgram streaming
// websocket API, pumping microphone PCM and emitting utterance-level
// transcripts.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"moodmate/internal/ports"
)

const defaultChunkSize = 4096

// Mic supplies raw PCM audio for streaming recognition.
type Mic interface {
	Start(ctx context.Context) (MicStream, error)
}

// MicStream is a live audio capture.
type MicStream interface {
	io.Reader
	Stop() error
}

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	ChunkSize   int
}

// Recognizer implements ports.Recognizer for Deepgram.
type Recognizer struct {
	cfg Config
	mic Mic
}

func NewRecognizer(cfg Config, mic Mic) *Recognizer {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Recognizer{cfg: cfg, mic: mic}
}

func (r *Recognizer) Start(ctx context.Context, cfg ports.RecognitionConfig) (ports.RecognitionSession, error) {
	if strings.TrimSpace(r.cfg.APIKey) == "" {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}

	wsURL, err := listenURL(r.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+r.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("connecting to recognition websocket: %w", err)
	}

	mic, err := r.mic.Start(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("starting microphone capture: %w", err)
	}

	session := &recognitionSession{
		conn:       conn,
		mic:        mic,
		chunkSize:  r.cfg.ChunkSize,
		utterances: make(chan string, 16),
		done:       make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.pumpAudio()
	go func() {
		session.wg.Wait()
		close(session.utterances)
		close(session.done)
		_ = conn.Close()
		_ = mic.Stop()
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Abort()
		case <-session.done:
		}
	}()

	return session, nil
}

type recognitionSession struct {
	conn      *websocket.Conn
	mic       MicStream
	chunkSize int

	utterances chan string
	done       chan struct{}
	wg         sync.WaitGroup

	mu      sync.Mutex
	aborted bool
	err     error

	abortOnce sync.Once
}

func (s *recognitionSession) Utterances() <-chan string { return s.utterances }

// Abort cancels recognition without surfacing an error; it releases the
// microphone and tears down the websocket.
func (s *recognitionSession) Abort() error {
	s.abortOnce.Do(func() {
		s.mu.Lock()
		s.aborted = true
		s.mu.Unlock()
		_ = s.mic.Stop()
		_ = s.conn.Close()
	})
	return nil
}

// Wait blocks until the session ends and reports any platform error. An
// aborted session reports nil.
func (s *recognitionSession) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return nil
	}
	return s.err
}

func (s *recognitionSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil && !s.aborted {
		s.err = err
	}
}

// pumpAudio streams microphone chunks until the capture ends, then signals
// the provider to flush.
func (s *recognitionSession) pumpAudio() {
	defer s.wg.Done()

	buf := make([]byte, s.chunkSize)
	for {
		n, err := s.mic.Read(buf)
		if n > 0 {
			if writeErr := s.conn.WriteMessage(websocket.BinaryMessage, buf[:n]); writeErr != nil {
				s.setErr(fmt.Errorf("sending audio: %w", writeErr))
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.setErr(fmt.Errorf("microphone capture: %w", err))
			}
			break
		}
	}

	_ = s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
}

// readLoop collects is_final segments and emits a complete utterance once
// the provider marks the end of speech.
func (s *recognitionSession) readLoop() {
	defer s.wg.Done()

	var pending []string
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("reading recognition event: %w", err))
			return
		}

		var response listenResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "recognition provider returned an unknown error"
			}
			s.setErr(errors.New(message))
			return
		}

		transcript := response.transcript()
		if transcript != "" && response.IsFinal {
			pending = append(pending, transcript)
		}

		if response.SpeechFinal && len(pending) > 0 {
			s.emit(strings.Join(pending, " "))
			pending = nil
		}
	}
}

func (s *recognitionSession) emit(utterance string) {
	select {
	case s.utterances <- utterance:
	case <-s.done:
	}
}

type listenResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (r listenResponse) transcript() string {
	if len(r.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Channel.Alternatives[0].Transcript)
}

func listenURL(cfg Config, rec ports.RecognitionConfig) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	u, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid recognition API base URL: %w", err)
	}

	if rec.SampleRate <= 0 {
		rec.SampleRate = 16000
	}
	if rec.Channels <= 0 {
		rec.Channels = 1
	}

	query := u.Query()
	query.Set("model", cfg.Model)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", fmt.Sprintf("%d", rec.SampleRate))
	query.Set("channels", fmt.Sprintf("%d", rec.Channels))
	query.Set("interim_results", fmt.Sprintf("%t", rec.InterimResults))
	query.Set("smart_format", fmt.Sprintf("%t", cfg.SmartFormat))
	query.Set("endpointing", "300")
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	} else if rec.Language != "" {
		query.Set("language", rec.Language)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
