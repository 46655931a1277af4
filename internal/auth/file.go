package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// fileProvider reads the token from a file on every Acquire, so an external
// agent can rotate it without restarting the client.
type fileProvider struct {
	path string
}

func newFileProvider(path string) (*fileProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file auth requires token file path")
	}
	return &fileProvider{path: path}, nil
}

func (p *fileProvider) Acquire(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		log.Debug().
			Str("action", "auth_acquire").
			Str("method", "file").
			Str("path", p.path).
			Msg("token file is empty")
		return "", ErrNoToken
	}
	return token, nil
}
