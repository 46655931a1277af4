package volumebackup

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/Chapsvision-dev/volume-backup-client/pkg/rest"
)

const (
	pathBackups       = "/backups"
	pathBackupsDetail = "/backups/detail"

	keyBackup  = "backup"
	keyBackups = "backups"
)

var ErrNoUniqueMatch = errors.New("more than one backup matches")

// BackupManager maps backup operations onto the transport.
type BackupManager struct {
	t rest.Transport
}

func NewBackupManager(t rest.Transport) *BackupManager {
	return &BackupManager{t: t}
}

// CreateOpts are the optional create fields; empty values are sent as null.
type CreateOpts struct {
	Container          string
	DisplayName        string
	DisplayDescription string
}

type createBackupBody struct {
	Backup createBackupFields `json:"backup"`
}

type createBackupFields struct {
	VolumeID           string  `json:"volume_id"`
	Container          *string `json:"container"`
	DisplayName        *string `json:"display_name"`
	DisplayDescription *string `json:"display_description"`
}

// Create backs up volumeID. The volume id is checked by the service.
func (m *BackupManager) Create(ctx context.Context, volumeID string, opts CreateOpts) (Backup, error) {
	body := createBackupBody{Backup: createBackupFields{
		VolumeID:           volumeID,
		Container:          nullable(opts.Container),
		DisplayName:        nullable(opts.DisplayName),
		DisplayDescription: nullable(opts.DisplayDescription),
	}}
	raw, err := m.t.Create(ctx, pathBackups, body, keyBackup)
	if err != nil {
		return Backup{}, fmt.Errorf("create backup of volume %q: %w", volumeID, err)
	}
	b, err := decodeBackup(raw, m)
	if err != nil {
		return Backup{}, fmt.Errorf("create backup of volume %q: %w", volumeID, err)
	}
	log.Debug().
		Str("action", "backup_create").
		Str("volume_id", volumeID).
		Str("backup_id", b.ID()).
		Msg("backup requested")
	return b, nil
}

// Get reads one backup. Unknown ids fail with rest.ErrNotFound.
func (m *BackupManager) Get(ctx context.Context, backupID string) (Backup, error) {
	raw, err := m.t.Get(ctx, backupPath(backupID), keyBackup)
	if err != nil {
		return Backup{}, fmt.Errorf("get backup %q: %w", backupID, err)
	}
	b, err := decodeBackup(raw, m)
	if err != nil {
		return Backup{}, fmt.Errorf("get backup %q: %w", backupID, err)
	}
	return b, nil
}

// List returns every backup in server order, from /backups/detail when
// detailed is set and /backups otherwise.
func (m *BackupManager) List(ctx context.Context, detailed bool) ([]Backup, error) {
	path := pathBackups
	if detailed {
		path = pathBackupsDetail
	}
	items, err := m.t.List(ctx, path, keyBackups)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	out := make([]Backup, 0, len(items))
	for i, raw := range items {
		b, err := decodeBackup(raw, m)
		if err != nil {
			return nil, fmt.Errorf("list backups: item %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Delete removes the referenced backup.
func (m *BackupManager) Delete(ctx context.Context, ref rest.Ref) error {
	id, err := ref.Resolve()
	if err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	if err := m.t.Delete(ctx, backupPath(id)); err != nil {
		return fmt.Errorf("delete backup %q: %w", id, err)
	}
	log.Debug().Str("action", "backup_delete").Str("backup_id", id).Msg("backup deletion requested")
	return nil
}

func backupPath(id string) string {
	return pathBackups + "/" + url.PathEscape(id)
}
