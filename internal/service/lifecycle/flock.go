package lifecycle

import (
	"fmt"
	"os"
)

// withPolicyLock serializes policy-file mutations for one component across
// processes via flock on a dedicated lock file, the same mechanism the
// teacher uses to guard state.json writes, repurposed here to guard
// attach/detach/grant/revoke/reset against a concurrent writer in another
// process (spec §5's single-writer requirement extended beyond one
// process's address space).
func (m *Manager) withPolicyLock(id string, fn func() error) error {
	lockPath := m.policyPath(id) + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open policy lock for %s: %w", id, err)
	}
	defer f.Close()

	if err := flockLock(f.Fd()); err != nil {
		return fmt.Errorf("acquire policy lock for %s: %w", id, err)
	}
	defer flockUnlock(f.Fd())

	return fn()
}
