package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	LLM       LLMConfig       `mapstructure:"llm"`
	StudyPlan StudyPlanConfig `mapstructure:"studyplan"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig selects the persistence backend. Driver is "mongo" or "memory";
// the memory driver keeps everything in-process and is meant for local runs.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines how incoming bearer tokens are verified.
// Tokens are minted by the identity service; only Secret and Issuer matter here.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // "dev" or "prod"
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig configures the generative content provider.
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // anthropic | openai | gemini | mock

	Anthropic ProviderKeyConfig `mapstructure:"anthropic"`
	OpenAI    ProviderKeyConfig `mapstructure:"openai"`
	Gemini    ProviderKeyConfig `mapstructure:"gemini"`

	// Timeout bounds a single generation call including retries.
	Timeout time.Duration `mapstructure:"timeout"`

	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`
	RetryInitialWait time.Duration `mapstructure:"retry_initial_wait"`
	RetryMaxWait     time.Duration `mapstructure:"retry_max_wait"`
}

type ProviderKeyConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// StudyPlanConfig holds the tunables of the study plan engine.
type StudyPlanConfig struct {
	PlanLength          int           `mapstructure:"plan_length"`
	MaxActivePlans      int           `mapstructure:"max_active_plans"`
	QuestionsPerDay     int           `mapstructure:"questions_per_day"`
	RequiredCorrect     int           `mapstructure:"required_correct"`
	UnlockDelay         time.Duration `mapstructure:"unlock_delay"`
	LevelThreshold      int           `mapstructure:"level_threshold"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
	SimilarityScanLimit int           `mapstructure:"similarity_scan_limit"`
	WeakScoreRatio      float64       `mapstructure:"weak_score_ratio"`
	WeakGrades          []string      `mapstructure:"weak_grades"`
	DefaultMinGPA       float64       `mapstructure:"default_min_gpa"`
	DefaultMinEnglish   string        `mapstructure:"default_min_english"`
}

// DefaultStudyPlanConfig mirrors the defaults registered with viper.
func DefaultStudyPlanConfig() StudyPlanConfig {
	return StudyPlanConfig{
		PlanLength:          60,
		MaxActivePlans:      3,
		QuestionsPerDay:     20,
		RequiredCorrect:     10,
		UnlockDelay:         20 * time.Hour,
		LevelThreshold:      1000,
		SimilarityThreshold: 0.6,
		SimilarityScanLimit: 5000,
		WeakScoreRatio:      0.5,
		WeakGrades:          []string{"FF", "VF", "DD", "DD+", "DC", "DC+"},
		DefaultMinGPA:       3.0,
		DefaultMinEnglish:   "B1",
	}
}

// Validate rejects settings the engine cannot run with.
func (c StudyPlanConfig) Validate() error {
	switch {
	case c.PlanLength <= 0:
		return errors.New("studyplan.plan_length must be positive")
	case c.MaxActivePlans <= 0:
		return errors.New("studyplan.max_active_plans must be positive")
	case c.QuestionsPerDay <= 0:
		return errors.New("studyplan.questions_per_day must be positive")
	case c.RequiredCorrect <= 0 || c.RequiredCorrect > c.QuestionsPerDay:
		return errors.New("studyplan.required_correct must be in 1..questions_per_day")
	case c.UnlockDelay < 0:
		return errors.New("studyplan.unlock_delay must not be negative")
	case c.LevelThreshold <= 0:
		return errors.New("studyplan.level_threshold must be positive")
	case c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1:
		return errors.New("studyplan.similarity_threshold must be in (0,1]")
	}
	return nil
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, studyplan.unlock_delay -> STUDYPLAN_UNLOCK_DELAY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	sp := DefaultStudyPlanConfig()
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "90s") // lazy content generation can be slow
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "intern_platform")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "intern-platform")
	v.SetDefault("log.mode", "dev")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("llm.provider", "mock")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.timeout", "45s")
	v.SetDefault("llm.retry_max_attempts", 2)
	v.SetDefault("llm.retry_initial_wait", "1s")
	v.SetDefault("llm.retry_max_wait", "5s")
	v.SetDefault("studyplan.plan_length", sp.PlanLength)
	v.SetDefault("studyplan.max_active_plans", sp.MaxActivePlans)
	v.SetDefault("studyplan.questions_per_day", sp.QuestionsPerDay)
	v.SetDefault("studyplan.required_correct", sp.RequiredCorrect)
	v.SetDefault("studyplan.unlock_delay", sp.UnlockDelay.String())
	v.SetDefault("studyplan.level_threshold", sp.LevelThreshold)
	v.SetDefault("studyplan.similarity_threshold", sp.SimilarityThreshold)
	v.SetDefault("studyplan.similarity_scan_limit", sp.SimilarityScanLimit)
	v.SetDefault("studyplan.weak_score_ratio", sp.WeakScoreRatio)
	v.SetDefault("studyplan.weak_grades", sp.WeakGrades)
	v.SetDefault("studyplan.default_min_gpa", sp.DefaultMinGPA)
	v.SetDefault("studyplan.default_min_english", sp.DefaultMinEnglish)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No file is fine, defaults and env vars still apply.
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if err = config.StudyPlan.Validate(); err != nil {
		return
	}
	return config, nil
}
