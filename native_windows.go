//go:build windows

package filefd

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// NativeFd owns exactly one raw OS file handle. The zero value is empty.
//
// Ownership is move-only: exactly one NativeFd refers to a live handle, and
// the handle is released at most once. Copying a non-empty NativeFd and
// closing both copies is a programming error.
type NativeFd struct {
	// CreateFile never returns a NULL handle, so zero doubles as "empty".
	h windows.Handle
}

// NewNativeFd wraps an already-open handle, taking ownership of it.
func NewNativeFd(h windows.Handle) NativeFd {
	return NativeFd{h: h}
}

// Empty reports whether n owns a handle.
func (n NativeFd) Empty() bool { return n.h == 0 }

// Raw returns the owned handle. Panics if n is empty.
func (n NativeFd) Raw() windows.Handle {
	if n.Empty() {
		panic("filefd: Raw called on empty NativeFd")
	}

	return n.h
}

// Close releases the handle. The first call closes it; subsequent calls are
// no-ops returning nil.
func (n *NativeFd) Close() error {
	if n.Empty() {
		return nil
	}

	h := n.h
	n.h = 0

	return windows.CloseHandle(h)
}

func (n NativeFd) String() string {
	if n.Empty() {
		return "handle -1"
	}

	return fmt.Sprintf("handle %#x", uintptr(n.h))
}
