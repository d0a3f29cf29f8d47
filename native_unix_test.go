//go:build unix

package filefd

import (
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func Test_NativeFd_Zero_Value_Is_Empty(t *testing.T) {
	t.Parallel()

	var nfd NativeFd
	if !nfd.Empty() {
		t.Fatal("zero NativeFd not empty")
	}
	if err := nfd.Close(); err != nil {
		t.Fatalf("Close on empty NativeFd: %v", err)
	}
}

func Test_NativeFd_Wraps_Descriptor_Zero(t *testing.T) {
	t.Parallel()

	// Descriptor 0 is a legal fd; wrapping it must not alias "empty".
	nfd := NewNativeFd(0)
	if nfd.Empty() {
		t.Fatal("NativeFd wrapping fd 0 reports empty")
	}
	if nfd.Raw() != 0 {
		t.Fatalf("Raw()=%d, want 0", nfd.Raw())
	}
}

func Test_NativeFd_Close_Releases_Exactly_Once(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file")

	raw, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	nfd := NewNativeFd(raw)

	if err := nfd.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if !nfd.Empty() {
		t.Fatal("NativeFd not empty after Close")
	}

	// A second Close is a no-op even if the raw descriptor number has been
	// reused by somebody else in the meantime.
	if err := nfd.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func Test_ReadinessState_Move_Transfers_Ownership(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	state := fd.Readiness()
	moved := state.moveNative()
	if moved.Empty() {
		t.Fatal("moved NativeFd is empty")
	}
	if !state.Native().Empty() {
		t.Fatal("state still owns the descriptor after move")
	}

	if err := moved.Close(); err != nil {
		t.Fatalf("Close on moved NativeFd: %v", err)
	}
}
