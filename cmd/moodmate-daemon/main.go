// moodmate-daemon runs the voice companion without a desktop shell: audio is
// captured with ffmpeg, recognized through Deepgram and spoken with
// espeak-ng. Dialogue progress is written to the log instead of a UI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"moodmate/internal/audio"
	"moodmate/internal/bootstrap"
	"moodmate/internal/config"
	"moodmate/internal/domain"
	"moodmate/internal/providers/deepgram"
	"moodmate/internal/providers/espeak"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if cfg.Deepgram.APIKey == "" {
		log.Error("DEEPGRAM_API_KEY not set")
		os.Exit(1)
	}

	recognizer := deepgram.NewRecognizer(deepgram.Config{
		APIKey:      cfg.Deepgram.APIKey,
		APIBaseURL:  cfg.Deepgram.APIBaseURL,
		Model:       cfg.Deepgram.Model,
		Language:    cfg.Deepgram.Language,
		SmartFormat: cfg.Deepgram.SmartFormat,
		ChunkSize:   cfg.Deepgram.ChunkSize,
	}, micAdapter{capture: audio.NewFFmpegCapture(audio.Config{
		Command:     cfg.Audio.RecorderCommand,
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
	})})

	synth := espeak.NewSynthesizer(espeak.Config{
		Command: cfg.Speech.SynthCommand,
		Voice:   cfg.Speech.SynthVoice,
		Rate:    cfg.Speech.SynthRate,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.Build(ctx, logSink{}, recognizer, synth)
	if err != nil {
		log.Error("Failed to wire services", "err", err)
		os.Exit(1)
	}
	defer services.Close(context.Background())

	services.Agent.EnableSpeech()
	if err := services.Agent.Start(ctx); err != nil {
		log.Error("Failed to start voice session", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful", "user", cfg.User.ID)

	<-ctx.Done()
	log.Info("Shutting down")
	_ = services.Agent.Stop()
}

// micAdapter bridges the ffmpeg capture to the recognizer's mic interface.
type micAdapter struct {
	capture *audio.FFmpegCapture
}

func (m micAdapter) Start(ctx context.Context) (deepgram.MicStream, error) {
	return m.capture.Start(ctx)
}

// logSink reports dialogue events on the log.
type logSink struct{}

func (logSink) DialogueStateChanged(state domain.DialogueState, reason domain.DialogueReason) {
	log.Info("Dialogue state changed", "state", state, "reason", reason)
}

func (logSink) TurnAppended(turn domain.ConversationTurn) {
	log.Info("Turn", "speaker", turn.Speaker, "text", turn.Text)
}

func (logSink) TurnRevealed(_ string) {}

func (logSink) MoodDetected(mood domain.MoodLabel) {
	log.Info("Mood detected", "mood", mood)
}

func (logSink) SuggestionsReady(set domain.SuggestionSet) {
	log.Info("Suggestions ready",
		"history", set.UserPreferred,
		"ml", set.MLBased,
		"generative", set.Generative,
	)
}

func (logSink) AgentError(code domain.ErrorCode, detail string) {
	log.Error("Agent error", "code", code, "detail", detail)
}
