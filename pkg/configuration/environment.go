package configuration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var DefaultEnvFiles = []string{".env", ".env.local"}

type HRAPIOptions struct {
	BaseURL   string        `env:"HR_API_BASE_URL" validate:"required,url"`
	Subdomain string        `env:"HR_API_SUBDOMAIN" validate:"required"`
	Username  string        `env:"HR_API_USERNAME" validate:"required"`
	Password  string        `env:"HR_API_PASSWORD" validate:"required"`
	PageSize  int           `env:"HR_API_PAGE_SIZE" envDefault:"100" validate:"min=1,max=1000"`
	MaxPages  int           `env:"HR_API_MAX_PAGES" envDefault:"1000" validate:"min=1"`
	BatchSize int           `env:"HR_API_BATCH_SIZE" envDefault:"10" validate:"min=1,max=50"`
	Timeout   time.Duration `env:"HR_API_TIMEOUT" envDefault:"30s"`
	// RateLimit is requests per second, 0 for unlimited.
	RateLimit int `env:"HR_API_RATE_LIMIT" envDefault:"0" validate:"min=0"`
}

type GoogleOptions struct {
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`
}

type CacheOptions struct {
	URL string        `env:"CACHE_URL" envDefault:"./cache"`
	TTL time.Duration `env:"CACHE_TTL" envDefault:"24h"`
}

type Configuration struct {
	HRAPI  HRAPIOptions
	Google GoogleOptions
	Cache  CacheOptions

	PushgatewayURL  string `env:"PUSHGATEWAY_URL"`
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=silent error warn info debug"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logger *logrus.Logger
}

// LoadEnv loads the env files that exist, looking in the working directory
// first and then in the nearest directory holding a go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles(".", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load reads env files and the process environment into a validated
// Configuration. Missing HR API credentials fail here, before any request.
func Load(envFiles []string, logOutput io.Writer) (*Configuration, error) {
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.logger = NewLogger(c.LogrusLogLevel(), c.LogFormat, logOutput)
	return c, nil
}

func (c *Configuration) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("configuration error: %w", describeValidation(err))
	}
	return nil
}

func describeValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}

func (c *Configuration) Logger() *logrus.Logger {
	if c.logger == nil {
		c.logger = NewLogger(c.LogrusLogLevel(), c.LogFormat, os.Stderr)
	}
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

func NewLogger(level logrus.Level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
