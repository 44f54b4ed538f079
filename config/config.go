package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and handed to every component.
type Config struct {
	Planner PlannerConfig
	Image   ImageConfig
	Speech  SpeechConfig
	Media   MediaConfig
	Redis   RedisConfig
	S3      S3Config
	Kafka   KafkaConfig
	YouTube YouTubeConfig
	APIPort string
	OutRoot string
}

// PlannerConfig selects and configures the language model used to plan scenes.
type PlannerConfig struct {
	Provider     string // "openai" or "cohere"
	Model        string
	OpenAIKey    string
	OpenAIBase   string
	CohereAPIKey string
}

// ImageConfig configures the illustration generator and its retry sweep.
type ImageConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Size         string
	Timeout      time.Duration
	MaxAttempts  int
	RetryInitial time.Duration
}

// SpeechConfig configures the streaming speech synthesizer.
type SpeechConfig struct {
	URL        string
	Token      string
	AppKey     string
	Voice      string
	SpeechRate int
	PitchRate  int
	Volume     int
	SampleRate int
	ReuseAudio bool
}

// MediaConfig points at the shared music and font assets.
type MediaConfig struct {
	ChimeFile string
	BGMFile   string
	FontFile  string
}

// RedisConfig configures the job status store. Empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// S3Config configures artifact publishing. Empty Bucket disables it.
type S3Config struct {
	Bucket       string
	Region       string
	Profile      string
	Endpoint     string
	Prefix       string
	UsePathStyle bool
}

// KafkaConfig configures the job intake consumer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// YouTubeConfig enables publishing the merged video. Empty file disables it.
type YouTubeConfig struct {
	ServiceAccountFile string
	CategoryID         string
	PrivacyStatus      string
}

// Load reads .env (if present) and the environment into a Config.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can inject values.
func FromEnv(getenv func(string) string) Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	getInt := func(key string, def int) int {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Printf("Ignoring invalid %s=%q", key, v)
		}
		return def
	}
	getBool := func(key string) bool {
		b, _ := strconv.ParseBool(strings.TrimSpace(getenv(key)))
		return b
	}

	musicDir := get("MUSIC_DIR", "music")

	openAIKey := getenv("OPENAI_API_KEY")
	openAIBase := getenv("OPENAI_API_BASE")

	prefix := get("S3_PREFIX", "")
	if prefix != "" {
		prefix = strings.Trim(prefix, "/") + "/"
	}

	return Config{
		Planner: PlannerConfig{
			Provider:     strings.ToLower(get("PLANNER_PROVIDER", "openai")),
			Model:        get("PLANNER_MODEL", ""),
			OpenAIKey:    openAIKey,
			OpenAIBase:   openAIBase,
			CohereAPIKey: getenv("COHERE_API_KEY"),
		},
		Image: ImageConfig{
			APIKey:       openAIKey,
			BaseURL:      openAIBase,
			Model:        get("IMAGE_MODEL", "dall-e-3"),
			Size:         get("IMAGE_SIZE", DefaultImageSize),
			Timeout:      time.Duration(getInt("IMAGE_TIMEOUT_SECONDS", int(DefaultImageTimeout/time.Second))) * time.Second,
			MaxAttempts:  getInt("IMAGE_MAX_ATTEMPTS", DefaultImageMaxAttempts),
			RetryInitial: time.Duration(getInt("IMAGE_RETRY_INITIAL_MS", int(DefaultImageRetryInitial/time.Millisecond))) * time.Millisecond,
		},
		Speech: SpeechConfig{
			URL:        getenv("ALI_AUDIO_URL"),
			Token:      getenv("ALI_AUDIO_TOKEN"),
			AppKey:     getenv("ALI_AUDIO_APPKEY"),
			Voice:      get("TTS_VOICE", DefaultVoice),
			SpeechRate: getInt("TTS_SPEECH_RATE", DefaultSpeechRate),
			PitchRate:  getInt("TTS_PITCH_RATE", DefaultPitchRate),
			Volume:     getInt("TTS_VOLUME", DefaultVolume),
			SampleRate: getInt("TTS_SAMPLE_RATE", DefaultSampleRate),
			ReuseAudio: getBool("REUSE_AUDIO"),
		},
		Media: MediaConfig{
			ChimeFile: get("CHIME_FILE", musicDir+"/bling.mp3"),
			BGMFile:   get("BGM_FILE", musicDir+"/background_music.mp3"),
			FontFile:  get("FONT_FILE", ""),
		},
		Redis: RedisConfig{
			Addr:     get("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASS"),
			DB:       getInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Bucket:       get("S3_BUCKET", ""),
			Region:       get("S3_REGION", ""),
			Profile:      get("S3_PROFILE", ""),
			Endpoint:     get("S3_ENDPOINT", ""),
			Prefix:       prefix,
			UsePathStyle: getBool("S3_USE_PATH_STYLE"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(get("KAFKA_BOOTSTRAP_SERVERS", "localhost:9093"), ","),
			Topic:   get("KAFKA_TOPIC_VIDEO_JOBS", "story-video-jobs"),
			GroupID: get("KAFKA_CONSUMER_GROUP_ID", "storyreel-consumer-group"),
		},
		YouTube: YouTubeConfig{
			ServiceAccountFile: get("YOUTUBE_SERVICE_ACCOUNT", ""),
			CategoryID:         get("YOUTUBE_CATEGORY_ID", "1"),
			PrivacyStatus:      get("YOUTUBE_PRIVACY_STATUS", "private"),
		},
		APIPort: get("PORT", DefaultAPIPort),
		OutRoot: get("OUTPUT_ROOT", "output"),
	}
}
