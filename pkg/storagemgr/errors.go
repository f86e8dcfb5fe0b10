package storagemgr

import "errors"

var (
	errAlreadyOpen    = errors.New("storagemgr: Open called on an already-running manager")
	errNotOpen        = errors.New("storagemgr: manager is not running")
	errNoRoot         = errors.New("storagemgr: no root has been set")
	errBackupDirUnset = errors.New("storagemgr: CreateBackup called with no destination directory configured or supplied")
)
