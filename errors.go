package filefd

import (
	"errors"
	"fmt"
	"syscall"
)

// Sentinel errors returned by filefd operations.
//
// Callers should use [errors.Is] to classify failures:
//
//	n, err := fd.Read(buf)
//	if errors.Is(err, filefd.ErrWouldBlock) {
//	    // no data ready right now, retry later
//	}
var (
	// ErrInvalidInput indicates invalid arguments were provided: a bad flag
	// combination, a negative offset, or a non-positive retry count.
	//
	// It is always detected before any syscall is issued and is never logged.
	ErrInvalidInput = errors.New("filefd: invalid input")

	// ErrWouldBlock indicates the operation cannot complete right now but may
	// succeed if retried later. It is returned by [FileFd.Read],
	// [FileFd.Write], [FileFd.Pread] and [FileFd.Pwrite] when the native call
	// reports would-block, resource-temporarily-unavailable, or pending I/O.
	//
	// Expected under non-blocking or partial-I/O usage; never logged.
	ErrWouldBlock = errors.New("filefd: would block")

	// ErrLockContention indicates [FileFd.Lock] exhausted its retry budget
	// because another process holds a conflicting lock. It is distinguishable
	// from a generic [OSError] so callers can give a specific diagnostic.
	ErrLockContention = errors.New(
		"filefd: can't lock file because it is already in use; check for another program instance running")
)

// OSError is a native call failure. It carries the OS error code captured at
// the call site plus a contextual message naming the operation and target.
//
// Unwrap exposes the code, so errors.Is(err, unix.ENOENT) and friends work.
type OSError struct {
	// Op is the operation that failed ("open", "read", "lock", ...).
	Op string

	// Code is the native error captured immediately after the failing call.
	Code syscall.Errno

	// Msg is the contextual message (path, offset, flag description).
	Msg string
}

func (e *OSError) Error() string {
	return fmt.Sprintf("filefd: %s: %s: %s", e.Op, e.Msg, e.Code.Error())
}

func (e *OSError) Unwrap() error {
	return e.Code
}

// newOSError builds an *OSError from err, which must carry a [syscall.Errno]
// somewhere in its chain (x/sys calls return one directly).
func newOSError(op string, err error, msg string) *OSError {
	return &OSError{Op: op, Code: errnoOf(err), Msg: msg}
}

// errnoOf extracts the errno from err, or 0 if none is present.
func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}

	return 0
}
