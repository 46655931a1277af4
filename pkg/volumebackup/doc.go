// Package volumebackup binds the block-storage backup and restore
// resources: BackupManager (create, get, list, delete, find) over /backups
// and RestoreManager over /volume-backups/{id}/restore.
//
// Every manager call is a single request through a rest.Transport; status
// tracking of asynchronous backups or restores is left to the caller, who
// polls Get or List.
package volumebackup
