package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

// Skill modes. Live fetches weather from OpenWeatherMap; stub answers with
// placeholder text and never touches the network.
const (
	ModeLive = "live"
	ModeStub = "stub"
)

var validate = validator.New()

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string `validate:"required"`
	LogLevel        string
	LogFormat       string `validate:"oneof=json text"`
	ShutdownTimeout time.Duration

	SkillMode string `validate:"oneof=live stub"`

	// OpenWeatherMap configuration.
	OpenWeatherAPIKey  string  `validate:"required_if=SkillMode live"`
	OpenWeatherBaseURL string  `validate:"required,url"`
	Latitude           float64 `validate:"gte=-90,lte=90"`
	Longitude          float64 `validate:"gte=-180,lte=180"`
	WeatherTimeout     time.Duration
	BreakerEnabled     bool

	// Dispatch audit configuration.
	AuditEnabled       bool
	KafkaBrokers       []string
	KafkaAuditTopic    string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("WEATHER_TIMEOUT", "5s"))
	if err != nil || weatherTimeout <= 0 {
		return nil, errors.New("invalid WEATHER_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	lat, err := parseCoordinate("WEATHER_LAT", "43.6532")
	if err != nil {
		return nil, err
	}
	lon, err := parseCoordinate("WEATHER_LON", "-79.3832")
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	mode := ModeStub
	if apiKey != "" {
		mode = ModeLive
	}
	mode = sharedcfg.EnvOrDefault("SKILL_MODE", mode)

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SkillMode: mode,

		OpenWeatherAPIKey:  apiKey,
		OpenWeatherBaseURL: sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),
		Latitude:           lat,
		Longitude:          lon,
		WeatherTimeout:     weatherTimeout,
		BreakerEnabled:     os.Getenv("WEATHER_BREAKER_ENABLED") == "true",

		AuditEnabled:       os.Getenv("AUDIT_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAuditTopic:    sharedcfg.EnvOrDefault("KAFKA_AUDIT_TOPIC", "skill-dispatch-audit"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, describe(err)
	}
	if cfg.AuditEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("AUDIT_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.AuditEnabled && cfg.KafkaAuditTopic == "" {
		return nil, errors.New("KAFKA_AUDIT_TOPIC is required when AUDIT_ENABLED is true")
	}

	return cfg, nil
}

func parseCoordinate(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// envNames maps struct fields to the variables that populate them so
// validation errors name what the operator has to change.
var envNames = map[string]string{
	"HTTPAddr":           "HTTP_ADDR",
	"LogFormat":          "LOG_FORMAT",
	"SkillMode":          "SKILL_MODE",
	"OpenWeatherAPIKey":  "OPENWEATHER_API_KEY",
	"OpenWeatherBaseURL": "OPENWEATHER_BASE_URL",
	"Latitude":           "WEATHER_LAT",
	"Longitude":          "WEATHER_LON",
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	name := envNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	if fe.Tag() == "required" || fe.Tag() == "required_if" {
		return fmt.Errorf("%s is required", name)
	}
	return fmt.Errorf("invalid %s: %v", name, fe.Value())
}
