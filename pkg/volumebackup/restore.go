package volumebackup

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/Chapsvision-dev/volume-backup-client/pkg/rest"
)

const keyRestore = "restore"

// Restore is the service's acknowledgement of a restore request. The
// restore itself runs asynchronously; poll the target volume for progress.
type Restore struct {
	rest.Resource
}

func (r Restore) String() string {
	if r.ID() != "" {
		return "VolumeBackupsRestore(" + r.ID() + ")"
	}
	return "VolumeBackupsRestore(backup=" + r.BackupID() + ", volume=" + r.VolumeID() + ")"
}

// BackupID is the source backup.
func (r Restore) BackupID() string { return r.Text("backup_id") }

// VolumeID is the volume being restored into.
func (r Restore) VolumeID() string { return r.Text("volume_id") }

// RestoreManager starts restores of backups.
type RestoreManager struct {
	t rest.Transport
}

func NewRestoreManager(t rest.Transport) *RestoreManager {
	return &RestoreManager{t: t}
}

type restoreBody struct {
	Restore restoreFields `json:"restore"`
}

type restoreFields struct {
	VolumeID *string `json:"volume_id"`
}

// Restore restores backupID into volumeID. An empty volumeID is sent as
// null and the service creates a new volume.
func (m *RestoreManager) Restore(ctx context.Context, backupID, volumeID string) (Restore, error) {
	path := "/volume-backups/" + url.PathEscape(backupID) + "/restore"
	body := restoreBody{Restore: restoreFields{VolumeID: nullable(volumeID)}}

	raw, err := m.t.Create(ctx, path, body, keyRestore)
	if err != nil {
		return Restore{}, fmt.Errorf("restore backup %q: %w", backupID, err)
	}
	res, err := rest.DecodeResource(raw)
	if err != nil {
		return Restore{}, fmt.Errorf("restore backup %q: %w", backupID, err)
	}
	r := Restore{Resource: res}
	log.Debug().
		Str("action", "backup_restore").
		Str("backup_id", backupID).
		Str("volume_id", r.VolumeID()).
		Msg("restore requested")
	return r, nil
}
