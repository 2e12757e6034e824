//go:build !linux

package offsetio

// adviseSequential is a no-op outside Linux; FADV_SEQUENTIAL has no
// portable equivalent worth shelling out for in a batch file-join tool.
func adviseSequential(f interface{ Fd() uintptr }) {}
