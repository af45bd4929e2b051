package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port string `env:"PORT" envDefault:"5250"`

		// Origins allowed by the CORS middleware
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Upstream struct {
		// Primary source credential. Empty forces mock data mode.
		PrimaryAPIKey string `env:"RAPIDAPI_KEY"`
		PrimaryHost   string `env:"PRIMARY_API_HOST" envDefault:"realty-in-us.p.rapidapi.com"`
		PrimaryURL    string `env:"PRIMARY_API_URL" envDefault:"https://realty-in-us.p.rapidapi.com/properties/v3/list"`

		// Secondary source credential, only used once the primary runs out of quota
		SecondaryAPIKey string `env:"SECONDARY_RAPIDAPI_KEY"`
		SecondaryHost   string `env:"SECONDARY_API_HOST" envDefault:"us-real-estate.p.rapidapi.com"`
		SecondaryURL    string `env:"SECONDARY_API_URL" envDefault:"https://us-real-estate.p.rapidapi.com/v2/for-sale"`

		Timeout           time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
		RequestsPerSecond float64       `env:"UPSTREAM_RPS" envDefault:"2"`
		Burst             int           `env:"UPSTREAM_BURST" envDefault:"4"`
	}

	Reports struct {
		SchedulePath  string `env:"REPORT_SCHEDULE_PATH" envDefault:"config/report_schedule.json"`
		OutputDir     string `env:"REPORT_OUTPUT_DIR" envDefault:"reports"`
		DefaultFormat string `env:"REPORT_DEFAULT_FORMAT" envDefault:"xlsx"`
		RunOnStart    bool   `env:"REPORT_RUN_ON_START" envDefault:"false"`

		// Number of report jobs buffered between the scheduler and the processor
		QueueSize int `env:"REPORT_QUEUE_SIZE" envDefault:"16"`

		// Maximum number of retries for a failed report job
		MaxRetries int `env:"REPORT_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"REPORT_RETRY_DELAY" envDefault:"5"`
	}

	Database struct {
		DSN string `env:"SEARCH_LOG_DSN" envDefault:"file:searchlog?mode=memory&cache=shared"`
	}

	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}
}

// LoadConfig reads an optional .env file and then the process environment
func LoadConfig(envFiles ...string) (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
