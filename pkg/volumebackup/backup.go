package volumebackup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Chapsvision-dev/volume-backup-client/pkg/rest"
)

var ErrMissingID = errors.New("backup has no id")

// Backup is a block-level backup of a volume as reported by the service.
type Backup struct {
	rest.Resource
	manager *BackupManager
}

// Details is the typed view of the well-known backup attributes. Anything
// else the service sends lands in Extra.
type Details struct {
	ID               string         `mapstructure:"id"`
	Name             string         `mapstructure:"name"`
	VolumeID         string         `mapstructure:"volume_id"`
	Container        string         `mapstructure:"container"`
	DisplayName      string         `mapstructure:"display_name"`
	Description      string         `mapstructure:"display_description"`
	Status           string         `mapstructure:"status"`
	FailReason       string         `mapstructure:"fail_reason"`
	AvailabilityZone string         `mapstructure:"availability_zone"`
	CreatedAt        string         `mapstructure:"created_at"`
	Size             int64          `mapstructure:"size"`
	ObjectCount      int64          `mapstructure:"object_count"`
	Links            []Link         `mapstructure:"links"`
	Extra            map[string]any `mapstructure:",remain"`
}

type Link struct {
	Href string `mapstructure:"href"`
	Rel  string `mapstructure:"rel"`
}

func decodeBackup(raw json.RawMessage, m *BackupManager) (Backup, error) {
	res, err := rest.DecodeResource(raw)
	if err != nil {
		return Backup{}, err
	}
	if res.ID() == "" {
		return Backup{}, fmt.Errorf("%w: %w", rest.ErrMalformedResponse, ErrMissingID)
	}
	return Backup{Resource: res, manager: m}, nil
}

func (b Backup) String() string { return "VolumeBackup(" + b.ID() + ")" }

// Status is the server-side lifecycle state (creating, available, error, ...).
func (b Backup) Status() string { return b.Text("status") }

// VolumeID is the volume the backup was taken from.
func (b Backup) VolumeID() string { return b.Text("volume_id") }

// Details decodes the attribute map into the typed view.
func (b Backup) Details() (Details, error) {
	var d Details
	err := b.Decode(&d)
	return d, err
}

// Delete removes this backup on the service.
func (b Backup) Delete(ctx context.Context) error {
	if b.manager == nil {
		return fmt.Errorf("delete %s: not bound to a manager", b)
	}
	return b.manager.Delete(ctx, rest.RefTo(b))
}
