package supervisor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// leaseDirMode is the permission mode for the lease directory.
const leaseDirMode = 0o750

// leaser hands out advisory per-port file locks shared by every supervisor
// pointed at the same directory. An empty dir disables leasing.
type leaser struct {
	dir string
}

// portLease is a held lock on one port. A nil lease is valid and releases
// nothing.
type portLease struct {
	port int
	lock *flock.Flock
}

// leasePath returns the lock file path for port.
func (l leaser) leasePath(port int) string {
	return filepath.Join(l.dir, fmt.Sprintf("port-%d.lock", port))
}

// acquire takes the lease for port without blocking.
// It returns errLeaseHeld if another holder owns it.
func (l leaser) acquire(port int) (*portLease, error) {
	if l.dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(l.dir, leaseDirMode); err != nil {
		return nil, fmt.Errorf("creating lease directory: %w", err)
	}

	lock := flock.New(l.leasePath(port))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking port %d: %w", port, err)
	}
	if !ok {
		return nil, fmt.Errorf("port %d: %w", port, errLeaseHeld)
	}
	return &portLease{port: port, lock: lock}, nil
}

// release drops the lease. The lock file is left in place; removing it
// would let a concurrent acquirer lock an unlinked inode.
func (p *portLease) release() error {
	if p == nil {
		return nil
	}
	return p.lock.Unlock()
}
