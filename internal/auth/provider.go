package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Chapsvision-dev/volume-backup-client/internal/config"
)

var (
	ErrNoToken = errors.New("no token available for block-storage auth")
)

// Provider abstracts how we obtain the API token sent as X-Auth-Token.
// Token issuance and renewal belong to the identity service, not to this client.
type Provider interface {
	Acquire(ctx context.Context) (string, error)
}

// New selects the provider based on cfg.Auth.Method. A nil Provider means
// requests are sent without a token.
// NOTE: This package never initializes logging; main() does via logx.InitFromEnv().
func New(cfg config.Config) (Provider, error) {
	method := strings.ToLower(strings.TrimSpace(cfg.Auth.Method))
	switch method {
	case config.AuthNone, "":
		log.Debug().
			Str("action", "auth_new").
			Str("method", config.AuthNone).
			Msg("auth provider selected")
		return nil, nil

	case config.AuthToken:
		log.Debug().
			Str("action", "auth_new").
			Str("method", config.AuthToken).
			Msg("auth provider selected")
		return &tokenProvider{token: strings.TrimSpace(cfg.Auth.Token)}, nil

	case config.AuthFile:
		log.Debug().
			Str("action", "auth_new").
			Str("method", config.AuthFile).
			Str("path", cfg.Auth.TokenFile).
			Msg("auth provider selected")
		return newFileProvider(cfg.Auth.TokenFile)

	default:
		return nil, errors.New("unsupported auth method: " + method)
	}
}
