//go:build unix

package filefd

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// NativeFd owns exactly one raw OS file descriptor. The zero value is empty.
//
// Ownership is move-only: exactly one NativeFd refers to a live descriptor,
// and the descriptor is released at most once. Copying a non-empty NativeFd
// and closing both copies is a programming error.
type NativeFd struct {
	// Raw descriptor stored off by one so the zero value is empty rather
	// than accidentally referring to stdin.
	fd1 int
}

// NewNativeFd wraps an already-open raw descriptor, taking ownership of it.
func NewNativeFd(raw int) NativeFd {
	return NativeFd{fd1: raw + 1}
}

// Empty reports whether n owns a descriptor.
func (n NativeFd) Empty() bool { return n.fd1 == 0 }

// Raw returns the owned descriptor. Panics if n is empty.
func (n NativeFd) Raw() int {
	if n.Empty() {
		panic("filefd: Raw called on empty NativeFd")
	}

	return n.fd1 - 1
}

// Close releases the descriptor. The first call closes it; subsequent calls
// are no-ops returning nil.
func (n *NativeFd) Close() error {
	if n.Empty() {
		return nil
	}

	raw := n.fd1 - 1
	n.fd1 = 0

	return unix.Close(raw)
}

func (n NativeFd) String() string {
	if n.Empty() {
		return "fd -1"
	}

	return fmt.Sprintf("fd %d", n.fd1-1)
}
