package bootstrap

import (
	"context"
	"errors"
	"net/http"

	"moodmate/internal/config"
	"moodmate/internal/ports"
	"moodmate/internal/providers/gemini"
	"moodmate/internal/providers/mlservice"
	"moodmate/internal/rules"
	"moodmate/internal/storage/memory"
	"moodmate/internal/storage/mongodb"
	"moodmate/internal/suggest"
	"moodmate/internal/usecase"
)

// Services is the assembled runtime graph. The caller supplies the
// recognizer and synthesizer for its runtime (browser bridge or headless
// audio pipeline); everything else is wired here.
type Services struct {
	Agent     *usecase.VoiceAgent
	Suggester ports.Suggester
	History   ports.HistoryStore
	Config    config.Config

	close func(context.Context) error
}

// Close releases held resources such as the database connection.
func (s Services) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Build wires all backend dependencies for the current runtime. Optional
// backends degrade rather than fail: without a Mongo URI history lives in
// memory, without a Gemini key generative suggestions fall back to their
// placeholder.
func Build(ctx context.Context, eventSink ports.EventSink, recognizer ports.Recognizer, synth ports.Synthesizer) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	normalizer, err := rules.Load(cfg.Rules.Path, cfg.Rules.PassLimit)
	if err != nil {
		return Services{}, err
	}

	var history ports.HistoryStore
	closeFn := func(context.Context) error { return nil }
	if cfg.Mongo.URI != "" {
		store, disconnect, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return Services{}, err
		}
		history = store
		closeFn = disconnect
	} else {
		history = memory.NewStore()
	}

	var generator ports.Generator = disabledGenerator{}
	if cfg.Gemini.APIKey != "" {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
		if err != nil {
			_ = closeFn(ctx)
			return Services{}, err
		}
		generator = client
	}

	suggester := suggest.NewService(
		history,
		mlservice.NewClient(cfg.ML.BaseURL, http.DefaultClient),
		generator,
		suggest.Config{
			HistoryTimeout:    cfg.Timeouts.History,
			ClassifierTimeout: cfg.Timeouts.Classifier,
			GenerateTimeout:   cfg.Timeouts.Generate,
			ElaborateTimeout:  cfg.Timeouts.Elaborate,
			RespondTimeout:    cfg.Timeouts.Respond,
		},
	)

	agent := usecase.NewVoiceAgent(
		recognizer,
		synth,
		suggester,
		normalizer,
		eventSink,
		usecase.Config{
			UserID: cfg.User.ID,
			Recognition: ports.RecognitionConfig{
				Language:       cfg.Deepgram.Language,
				SampleRate:     cfg.Audio.SampleRate,
				Channels:       cfg.Audio.Channels,
				InterimResults: true,
			},
			TypingInterval: cfg.Speech.TypingInterval,
		},
	)

	return Services{
		Agent:     agent,
		Suggester: suggester,
		History:   history,
		Config:    cfg,
		close:     closeFn,
	}, nil
}

// disabledGenerator stands in when no Gemini key is configured; the
// suggestion service turns its error into the generative placeholder.
type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, string) (string, error) {
	return "", errors.New("generative backend is not configured")
}
