package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the mood companion.
type Config struct {
	User     UserConfig
	Mongo    MongoConfig
	Gemini   GeminiConfig
	ML       MLConfig
	Deepgram DeepgramConfig
	Audio    AudioConfig
	Speech   SpeechConfig
	Rules    RulesConfig
	Timeouts TimeoutConfig
}

type UserConfig struct {
	ID string
}

type MongoConfig struct {
	URI      string
	Database string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type MLConfig struct {
	BaseURL string
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	ChunkSize   int
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SpeechConfig struct {
	SynthCommand   string
	SynthVoice     string
	SynthRate      int
	TypingInterval time.Duration
}

type RulesConfig struct {
	Path      string
	PassLimit int
}

type TimeoutConfig struct {
	History    time.Duration
	Classifier time.Duration
	Generate   time.Duration
	Elaborate  time.Duration
	Respond    time.Duration
}

// Load resolves configuration from environment variables and sensible
// defaults. Secrets stay out of the binary; callers typically load a .env
// file first.
func Load() (Config, error) {
	cfg := Config{
		User: UserConfig{
			ID: strings.TrimSpace(os.Getenv("MOODMATE_USER_ID")),
		},
		Mongo: MongoConfig{
			URI:      strings.TrimSpace(os.Getenv("MOODMATE_MONGO_URI")),
			Database: envOrDefault("MOODMATE_MONGO_DATABASE", "moodmate"),
		},
		Gemini: GeminiConfig{
			APIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:  envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		ML: MLConfig{
			BaseURL: envOrDefault("MOODMATE_ML_BASE_URL", "http://127.0.0.1:5001"),
		},
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:       envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:    strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
			ChunkSize:   envOrDefaultInt("MOODMATE_AUDIO_CHUNK_SIZE", 4096),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("MOODMATE_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("MOODMATE_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("MOODMATE_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("MOODMATE_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("MOODMATE_CHANNELS", 1),
		},
		Speech: SpeechConfig{
			SynthCommand:   envOrDefault("MOODMATE_SYNTH_COMMAND", "espeak-ng"),
			SynthVoice:     envOrDefault("MOODMATE_SYNTH_VOICE", "en-US"),
			SynthRate:      envOrDefaultInt("MOODMATE_SYNTH_RATE", 160),
			TypingInterval: envDurationMS("MOODMATE_TYPING_INTERVAL_MS", 30*time.Millisecond),
		},
		Rules: RulesConfig{
			Path:      strings.TrimSpace(os.Getenv("MOODMATE_RULES_FILE")),
			PassLimit: envOrDefaultInt("MOODMATE_RULE_PASS_LIMIT", 30),
		},
		Timeouts: TimeoutConfig{
			History:    envDurationMS("MOODMATE_HISTORY_TIMEOUT_MS", 5*time.Second),
			Classifier: envDurationMS("MOODMATE_CLASSIFIER_TIMEOUT_MS", 5*time.Second),
			Generate:   envDurationMS("MOODMATE_GENERATE_TIMEOUT_MS", 5*time.Second),
			Elaborate:  envDurationMS("MOODMATE_ELABORATE_TIMEOUT_MS", 7*time.Second),
			Respond:    envDurationMS("MOODMATE_RESPOND_TIMEOUT_MS", 7*time.Second),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Rules.PassLimit <= 0 {
		cfg.Rules.PassLimit = 30
	}
	if cfg.Deepgram.ChunkSize < 256 {
		cfg.Deepgram.ChunkSize = 4096
	}
	if cfg.User.ID == "" {
		cfg.User.ID = "local"
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envDurationMS(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}
