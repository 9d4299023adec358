//go:build linux

package venue

import (
	"golang.org/x/sys/unix"
)

// pinCurrentThread best-effort pins the calling OS thread to core.
// Failure is not fatal: pipeline start must succeed even when the
// process lacks permission to set affinity (containers, cgroup limits).
func pinCurrentThread(core int) error {
	if core < 0 {
		return nil
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
