package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Chapsvision-dev/volume-backup-client/internal/export"
	"github.com/Chapsvision-dev/volume-backup-client/internal/util"
	"github.com/Chapsvision-dev/volume-backup-client/pkg/volumebackup"
)

const (
	defaultPrefix = "volume-backups/inventory"
	defaultLayout = "2006-01-02T15-04-05Z"
)

// Lister is the part of BackupManager an export needs.
type Lister interface {
	List(ctx context.Context, detailed bool) ([]volumebackup.Backup, error)
}

// Options controls manifest naming.
type Options struct {
	// RemotePrefix: sink prefix/directory; a timestamped filename is appended (default: volume-backups/inventory).
	RemotePrefix string
	// TimestampFormat: Go time layout for the filename (default: 2006-01-02T15-04-05Z).
	TimestampFormat string
	// Now overrides the clock (tests).
	Now func() time.Time
}

// Manifest is the exported document.
type Manifest struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Count       int                   `json:"count"`
	Backups     []volumebackup.Backup `json:"backups"`
}

// Result describes the stored manifest.
type Result struct {
	RemoteKey string
	Count     int
	Size      int64
	SHA256    string
	Timestamp time.Time
}

// Export snapshots the detailed backup list into a JSON manifest and stores
// it in sink under "<prefix>/<timestamp>.json".
func Export(ctx context.Context, l Lister, sink export.Sink, opt Options) (Result, error) {
	var res Result

	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}

	start := time.Now()
	backups, err := l.List(ctx, true)
	if err != nil {
		log.Error().Err(err).Str("action", "inventory_list").Msg("listing backups failed")
		return res, err
	}
	log.Info().
		Str("action", "inventory_list").
		Int("count", len(backups)).
		Dur("elapsed_ms", time.Since(start)).
		Msg("backups listed")

	ts := now().UTC()
	doc, err := json.MarshalIndent(Manifest{GeneratedAt: ts, Count: len(backups), Backups: backups}, "", "  ")
	if err != nil {
		return res, fmt.Errorf("encode manifest: %w", err)
	}
	sum, size, err := util.SHA256(bytes.NewReader(doc))
	if err != nil {
		return res, fmt.Errorf("checksum: %w", err)
	}

	key := BuildKey(opt.RemotePrefix, opt.TimestampFormat, ts)
	log.Debug().
		Str("action", "build_key").
		Str("remote_key", key).
		Msg("generated remote key")

	putStart := time.Now()
	if err := sink.Put(ctx, key, doc); err != nil {
		log.Error().
			Err(err).
			Str("action", "inventory_put").
			Str("sink", sink.Name()).
			Str("remote", key).
			Dur("elapsed_ms", time.Since(putStart)).
			Msg("storing manifest failed")
		return res, fmt.Errorf("store manifest: %w", err)
	}

	res.RemoteKey = key
	res.Count = len(backups)
	res.Size = size
	res.SHA256 = sum
	res.Timestamp = ts
	return res, nil
}

// BuildKey returns "<prefix>/<timestamp>.json".
func BuildKey(prefix, layout string, ts time.Time) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = defaultPrefix
	}
	layout = strings.TrimSpace(layout)
	if layout == "" {
		layout = defaultLayout
	}
	return path.Join(prefix, ts.UTC().Format(layout)+".json")
}
