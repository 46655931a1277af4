package volumebackup

import "github.com/Chapsvision-dev/volume-backup-client/pkg/rest"

// Client groups the managers sharing one transport.
type Client struct {
	Backups  *BackupManager
	Restores *RestoreManager
}

// NewClient wires both managers over t.
func NewClient(t rest.Transport) *Client {
	return &Client{
		Backups:  NewBackupManager(t),
		Restores: NewRestoreManager(t),
	}
}

// nullable maps an unset optional field to JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
