// Package local is the filesystem export sink, registered as "file".
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Chapsvision-dev/volume-backup-client/internal/config"
	"github.com/Chapsvision-dev/volume-backup-client/internal/export"
)

type Sink struct {
	dir string
}

func New(dir string) (*Sink, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file: export dir is required")
	}
	return &Sink{dir: filepath.Clean(dir)}, nil
}

func (s *Sink) Name() string { return config.ExportFile }

// Put writes to a .part file and renames it into place.
func (s *Sink) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel := filepath.FromSlash(strings.TrimPrefix(key, "/"))
	if rel == "" || rel == "." || strings.HasPrefix(filepath.Clean(rel), "..") {
		return fmt.Errorf("file: invalid key %q", key)
	}
	dst := filepath.Join(s.dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	tmp := dst + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	log.Debug().Str("action", "file_put").Str("path", dst).Int("size", len(data)).Msg("export written")
	return nil
}

func init() {
	export.Register(config.ExportFile, func(cfg any) (export.Sink, error) {
		c, ok := cfg.(config.Config)
		if !ok {
			return nil, fmt.Errorf("file: invalid config type")
		}
		return New(c.ExportDir)
	})
}
