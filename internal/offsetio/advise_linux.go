//go:build linux

package offsetio

import "golang.org/x/sys/unix"

// adviseSequential hints to the kernel that the file will be read once,
// start to end, the way every Stream consumes its current file. It is
// best-effort: a failed advisory changes nothing but the OS's readahead
// heuristic, never correctness.
func adviseSequential(f interface{ Fd() uintptr }) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
