package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Chapsvision-dev/volume-backup-client/internal/retry"
)

// Auth methods.
const (
	AuthNone  = "none"
	AuthToken = "token"
	AuthFile  = "file"
)

// Export providers.
const (
	ExportFile  = "file"
	ExportAzure = "azure"
)

type Config struct {
	// Endpoint is the block-storage API base URL, including any project scope
	// (e.g. https://volume.example.com/v2/<project_id>).
	Endpoint    string
	HTTPTimeout time.Duration
	Auth        AuthConfig

	// Inventory export
	ExportProvider        string
	ExportTarget          string
	ExportDir             string
	ExportTimestampFormat string

	Azure AzureConfig

	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	RetryMultiplier   float64
	RetryEnableJitter bool
}

type AzureConfig struct {
	Account   string
	Container string
	SASToken  string
	Endpoint  string // optional, defaults to https://<account>.blob.core.windows.net/

	ClientID     string
	ClientSecret string
	TenantID     string
}

type AuthConfig struct {
	Method    string // "none", "token" or "file"
	Token     string // only if Method == token
	TokenFile string // only if Method == file; re-read on every request
}

// Load reads config from environment variables, applies defaults and validates.
func Load() (Config, error) {
	// Blank values count as unset.
	get := func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return v
		}
		return def
	}

	parseInt := func(key string, def int) int {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				return n
			}
		}
		return def
	}

	parseDur := func(key string, def time.Duration) time.Duration {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		}
		return def
	}

	parseFloat := func(key string, def float64) float64 {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				return f
			}
		}
		return def
	}

	parseBool := func(key string, def bool) bool {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "y", "on":
				return true
			case "0", "false", "no", "n", "off":
				return false
			}
		}
		return def
	}

	// -------------------------
	// Auth parsing (fallbacks)
	// -------------------------
	token := strings.TrimSpace(get("BLOCKSTORE_TOKEN", ""))
	tokenFile := strings.TrimSpace(get("BLOCKSTORE_TOKEN_FILE", ""))

	method := strings.ToLower(strings.TrimSpace(get("BLOCKSTORE_AUTH_METHOD", "")))
	if method == "" {
		switch {
		case token != "":
			method = AuthToken
		case tokenFile != "":
			method = AuthFile
		default:
			method = AuthNone
		}
	}

	cfg := Config{
		Endpoint:    strings.TrimSpace(get("BLOCKSTORE_ENDPOINT", "")),
		HTTPTimeout: parseDur("HTTP_TIMEOUT", 30*time.Second),
		Auth: AuthConfig{
			Method:    method,
			Token:     token,
			TokenFile: tokenFile,
		},

		ExportProvider:        strings.ToLower(strings.TrimSpace(get("EXPORT_PROVIDER", ExportFile))),
		ExportTarget:          get("EXPORT_TARGET", ""),
		ExportDir:             get("EXPORT_DIR", "./exports"),
		ExportTimestampFormat: get("EXPORT_TIMESTAMP_FORMAT", ""),

		Azure: AzureConfig{
			Account:      get("AZURE_STORAGE_ACCOUNT", ""),
			Container:    get("AZURE_STORAGE_CONTAINER", ""),
			SASToken:     get("AZURE_STORAGE_SAS", ""),
			Endpoint:     get("AZURE_BLOB_ENDPOINT", ""),
			ClientID:     get("AZURE_CLIENT_ID", ""),
			ClientSecret: get("AZURE_CLIENT_SECRET", ""),
			TenantID:     get("AZURE_TENANT_ID", ""),
		},

		// API calls are single round trips unless retries are explicitly enabled.
		RetryMaxAttempts:  parseInt("RETRY_MAX_ATTEMPTS", retry.None.MaxAttempts),
		RetryInitialDelay: parseDur("RETRY_INITIAL_DELAY", retry.Default.InitialDelay),
		RetryMaxDelay:     parseDur("RETRY_MAX_DELAY", retry.Default.MaxDelay),
		RetryMultiplier:   parseFloat("RETRY_MULTIPLIER", retry.Default.Multiplier),
		RetryEnableJitter: parseBool("RETRY_JITTER", retry.Default.Jitter),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the API endpoint, auth and export provider requirements.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required.Error("BLOCKSTORE_ENDPOINT is required"), validation.By(httpURL)),
		validation.Field(&c.HTTPTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ExportProvider, validation.In(ExportFile, ExportAzure).Error("unsupported export provider")),
		validation.Field(&c.RetryMaxAttempts, validation.Min(0)),
	)
	if err != nil {
		return err
	}

	switch c.Auth.Method {
	case AuthNone:
	case AuthToken:
		if c.Auth.Token == "" {
			return errors.New("auth method token requires BLOCKSTORE_TOKEN")
		}
	case AuthFile:
		if c.Auth.TokenFile == "" {
			return errors.New("auth method file requires BLOCKSTORE_TOKEN_FILE")
		}
	default:
		return errors.New("unsupported auth method: " + c.Auth.Method)
	}
	return nil
}

// ValidateExport checks provider-specific requirements. It is only enforced
// by commands that actually export, so API-only usage needs no storage config.
func (c Config) ValidateExport() error {
	switch c.ExportProvider {
	case ExportFile:
		return validation.Validate(c.ExportDir, validation.Required.Error("EXPORT_DIR is required"))
	case ExportAzure:
		// Accept SAS or SP (ClientID/Secret/Tenant). If neither, DefaultAzureCredential is used.
		return validation.ValidateStruct(&c.Azure,
			validation.Field(&c.Azure.Account, validation.Required.Error("AZURE_STORAGE_ACCOUNT is required")),
			validation.Field(&c.Azure.Container, validation.Required.Error("AZURE_STORAGE_CONTAINER is required")),
		)
	default:
		return errors.New("unsupported export provider: " + c.ExportProvider)
	}
}

// RetryOptions converts retry-related config values to retry.Options.
func (c Config) RetryOptions() retry.Options {
	return retry.Options{
		MaxAttempts:  c.RetryMaxAttempts,
		InitialDelay: c.RetryInitialDelay,
		MaxDelay:     c.RetryMaxDelay,
		Multiplier:   c.RetryMultiplier,
		Jitter:       c.RetryEnableJitter,
	}
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http(s) URL")
	}
	return nil
}
