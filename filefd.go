// Package filefd provides a portable file-handle abstraction that unifies
// open/close, positioned and sequential I/O, advisory locking, metadata
// query, durability flush, and truncation across POSIX file descriptors and
// Windows handles behind one synchronous API.
//
// The main types are:
//   - [FileFd]: the handle; one value per open file
//   - [OpenFlags]: open-mode bitmask validated before any syscall
//   - [ReadinessState]: per-handle {Readable, Writable} flags consulted by an
//     external reactor
//   - [NativeFd]: move-only owner of the raw descriptor/handle
//
// Example usage:
//
//	fd, err := filefd.Open("data.bin", filefd.Read|filefd.Write|filefd.Create, 0o644)
//	if err != nil {
//	    return err
//	}
//	defer fd.Close()
//
//	if err := fd.Lock(filefd.LockExclusive, 10); err != nil {
//	    return err // filefd.ErrLockContention: another instance is running
//	}
//	n, err := fd.Pwrite(payload, 4096)
//
// Every operation is a direct synchronous syscall; there is no buffering,
// caching, or async completion. A single FileFd is not safe for concurrent
// use without external synchronization. OS error codes are surfaced
// faithfully through [OSError].
package filefd

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"time"
)

// lockRetryDelay is the fixed sleep between lock attempts on contention.
const lockRetryDelay = 100 * time.Millisecond

// maxEINTRRetries caps signal-interruption retries so a pathological signal
// storm cannot spin forever. Go's own runtime retries without a cap; in
// practice this limit is never reached.
const maxEINTRRetries = 10000

// FileFd is a synchronous handle to one open file.
//
// A FileFd exclusively owns a [ReadinessState], which exclusively owns a
// [NativeFd]. Construct one with [Open] or [FromNative]; release the native
// resource with [FileFd.Close] (idempotent).
//
// Calling any I/O or metadata operation on an empty handle is a programming
// error and panics. Use [FileFd.Empty] to query ownership.
type FileFd struct {
	state *ReadinessState
	sys   sysFile
	log   LogSink

	// sleep is the lock-retry suspension hook, replaceable in tests so
	// contention paths run without wall-clock delays.
	sleep func(time.Duration)
}

// Open opens the file at path according to flags and, when a file is
// created, the permission bits perm.
//
// Flags are validated first: unknown bits or a combination with neither
// [Read] nor [Write] fail with [ErrInvalidInput] before any filesystem
// access. A native failure is returned as an *[OSError] carrying the OS
// error code, the path, and a rendered flag description.
//
// On success the handle is marked Writable in its [ReadinessState];
// Readable stays unset until I/O proves otherwise.
func Open(path string, flags OpenFlags, perm fs.FileMode) (*FileFd, error) {
	if flags&^knownFlags != 0 {
		return nil, fmt.Errorf("%w: file %q has failed to be %s", ErrInvalidInput, path, flags)
	}

	if flags&(Read|Write) == 0 {
		return nil, fmt.Errorf("%w: file %q can't be %s", ErrInvalidInput, path, flags)
	}

	nfd, err := sysOpen(path, flags, uint32(perm.Perm()))
	if err != nil {
		var osErr *OSError
		if errors.As(err, &osErr) || errors.Is(err, ErrInvalidInput) {
			// Already contextualized by the platform layer (for example the
			// post-open repositioning that emulates Append on Windows).
			return nil, err
		}

		return nil, newOSError("open", err, fmt.Sprintf("file %q can't be %s", path, flags))
	}

	return FromNative(nfd), nil
}

// FromNative wraps an already-owned native descriptor in a FileFd, taking
// ownership of it. The handle starts out marked Writable.
func FromNative(nfd NativeFd) *FileFd {
	state := newReadinessState(nfd)
	state.SetWritable()

	return &FileFd{
		state: state,
		sys:   newSysFile(nfd),
		log:   defaultLogSink,
		sleep: time.Sleep,
	}
}

// Empty reports whether fd currently owns a native resource.
func (fd *FileFd) Empty() bool {
	return fd == nil || fd.state == nil || fd.state.Native().Empty()
}

// Close releases the owned ReadinessState and NativeFd. It is idempotent:
// closing an already-empty handle is a no-op, not an error.
func (fd *FileFd) Close() error {
	if fd.Empty() {
		return nil
	}

	err := fd.state.close()
	fd.sys = nil

	return err
}

// Read transfers up to len(p) bytes from the file's sequential cursor into p
// and returns the number of bytes read. A short or zero count is not an
// error; it clears the Readable flag ("no more data ready now", not
// necessarily EOF). A full read marks the handle Readable again.
//
// Interruption by a signal is retried transparently. Would-block conditions
// return [ErrWouldBlock] without logging; any other native failure is logged
// at error severity and returned as an *[OSError].
func (fd *FileFd) Read(p []byte) (int, error) {
	fd.mustBeOpen("read")

	n, err := ignoringEINTR2(func() (int, error) { return fd.sys.Read(p) })
	if err != nil {
		return 0, fd.ioError("read", err, fmt.Sprintf("read from %s has failed", fd.state.Native()))
	}

	if n < len(p) {
		fd.state.ClearReadable()
	} else if len(p) > 0 {
		fd.state.SetReadable()
	}

	return n, nil
}

// Write transfers up to len(p) bytes from p at the file's sequential cursor
// and returns the number of bytes written. A short count is not an error.
//
// Error semantics match [FileFd.Read].
func (fd *FileFd) Write(p []byte) (int, error) {
	fd.mustBeOpen("write")

	n, err := ignoringEINTR2(func() (int, error) { return fd.sys.Write(p) })
	if err != nil {
		return 0, fd.ioError("write", err, fmt.Sprintf("write to %s has failed", fd.state.Native()))
	}

	return n, nil
}

// Pread reads up to len(p) bytes at the explicit byte offset, independent of
// the sequential cursor. It never observes or mutates cursor state: the
// platform's positioned-read primitive is used, not seek-then-read.
//
// A negative offset fails with [ErrInvalidInput] before any syscall.
// Error semantics otherwise match [FileFd.Read], except readiness flags are
// untouched.
func (fd *FileFd) Pread(p []byte, offset int64) (int, error) {
	fd.mustBeOpen("pread")

	if offset < 0 {
		return 0, fmt.Errorf("%w: offset must be non-negative", ErrInvalidInput)
	}

	n, err := ignoringEINTR2(func() (int, error) { return fd.sys.Pread(p, offset) })
	if err != nil {
		return 0, fd.ioError("pread", err,
			fmt.Sprintf("pread from %s at offset %d has failed", fd.state.Native(), offset))
	}

	return n, nil
}

// Pwrite writes up to len(p) bytes at the explicit byte offset, independent
// of the sequential cursor. See [FileFd.Pread] for offset and error
// semantics.
func (fd *FileFd) Pwrite(p []byte, offset int64) (int, error) {
	fd.mustBeOpen("pwrite")

	if offset < 0 {
		return 0, fmt.Errorf("%w: offset must be non-negative", ErrInvalidInput)
	}

	n, err := ignoringEINTR2(func() (int, error) { return fd.sys.Pwrite(p, offset) })
	if err != nil {
		return 0, fd.ioError("pwrite", err,
			fmt.Sprintf("pwrite to %s at offset %d has failed", fd.state.Native(), offset))
	}

	return n, nil
}

// Lock attempts an advisory whole-file lock transition, retrying up to
// maxTries times on contention with a fixed 100ms sleep between attempts.
//
// maxTries must be positive, else [ErrInvalidInput]. When another process
// holds a conflicting lock and the attempt budget runs out, Lock returns
// [ErrLockContention]; any other native failure is returned immediately as
// an *[OSError] without retry.
//
// The lock is advisory: it constrains other lock-aware processes, not
// arbitrary I/O. Locks are held per handle, so two handles on the same file
// contend even within one process.
func (fd *FileFd) Lock(mode LockMode, maxTries int) error {
	fd.mustBeOpen("lock")

	if maxTries <= 0 {
		return fmt.Errorf("%w: lock max tries must be positive, got %d", ErrInvalidInput, maxTries)
	}

	if mode != LockShared && mode != LockExclusive && mode != LockUnlock {
		return fmt.Errorf("%w: unknown lock mode %d", ErrInvalidInput, int32(mode))
	}

	for {
		err := ignoringEINTR(func() error { return fd.sys.LockNB(mode) })
		if err == nil {
			return nil
		}

		if isLockContention(errnoOf(err)) {
			maxTries--
			if maxTries > 0 {
				fd.sleep(lockRetryDelay)

				continue
			}

			return ErrLockContention
		}

		return newOSError("lock", err, fmt.Sprintf("can't %s-lock %s", mode, fd.state.Native()))
	}
}

// Stat returns a fresh metadata snapshot of the open file. Nothing is
// cached; times are Unix-epoch nanoseconds on every platform.
func (fd *FileFd) Stat() (Stat, error) {
	fd.mustBeOpen("stat")

	st, err := fd.sys.Stat()
	if err != nil {
		return Stat{}, newOSError("stat", err, fmt.Sprintf("stat of %s has failed", fd.state.Native()))
	}

	return st, nil
}

// Size returns the current file size in bytes. Shorthand for [FileFd.Stat].
func (fd *FileFd) Size() (int64, error) {
	st, err := fd.Stat()

	return st.Size, err
}

// Sync flushes all buffered writes to stable storage. A failure is always an
// *[OSError]; durability failures are never classified as transient or
// silently retried.
func (fd *FileFd) Sync() error {
	fd.mustBeOpen("sync")

	if err := fd.sys.Sync(); err != nil {
		return newOSError("sync", err, fmt.Sprintf("sync of %s has failed", fd.state.Native()))
	}

	return nil
}

// Seek repositions the sequential cursor to position bytes from the start of
// the file. Positioned I/O ([FileFd.Pread], [FileFd.Pwrite]) is unaffected.
func (fd *FileFd) Seek(position int64) error {
	fd.mustBeOpen("seek")

	err := ignoringEINTR(func() error { return fd.sys.Seek(position) })
	if err != nil {
		return newOSError("seek", err,
			fmt.Sprintf("seek of %s to position %d has failed", fd.state.Native(), position))
	}

	return nil
}

// Truncate sets end-of-file to exactly size bytes on every platform. The
// sequential cursor is left where it was, even when it now points past
// end-of-file.
func (fd *FileFd) Truncate(size int64) error {
	fd.mustBeOpen("truncate")

	err := ignoringEINTR(func() error { return fd.sys.Truncate(size) })
	if err != nil {
		return newOSError("truncate", err,
			fmt.Sprintf("truncate of %s to %d bytes has failed", fd.state.Native(), size))
	}

	return nil
}

// Readiness returns the handle's readiness bookkeeping for reactor use.
// Panics on an empty handle.
func (fd *FileFd) Readiness() *ReadinessState {
	fd.mustBeOpen("readiness")

	return fd.state
}

// Native returns the owned native descriptor without transferring ownership.
// Panics on an empty handle.
func (fd *FileFd) Native() NativeFd {
	fd.mustBeOpen("native")

	return fd.state.Native()
}

// ReleaseNative moves the native descriptor out of the handle, leaving it
// empty without closing the descriptor. The caller takes over ownership.
// Panics on an empty handle.
func (fd *FileFd) ReleaseNative() NativeFd {
	fd.mustBeOpen("release native")

	nfd := fd.state.moveNative()
	fd.sys = nil

	return nfd
}

// SetLogSink redirects the handle's mandatory error logging. A nil sink
// restores the package default.
func (fd *FileFd) SetLogSink(sink LogSink) {
	if sink == nil {
		fd.log = defaultLogSink

		return
	}

	fd.log = sink
}

// mustBeOpen enforces the contract that operations on an empty handle fail
// fast instead of silently no-oping.
func (fd *FileFd) mustBeOpen(op string) {
	if fd.Empty() {
		panic("filefd: " + op + " on empty FileFd")
	}
}

// ioError classifies a read/write family failure. Transient conditions
// (would-block, resource unavailable, pending I/O) become [ErrWouldBlock]
// and are not logged; everything else is logged at error severity before the
// *[OSError] is returned, because the caller may discard it.
func (fd *FileFd) ioError(op string, err error, msg string) error {
	errno := errnoOf(err)
	if isTransientErrno(errno) {
		return fmt.Errorf("%s: %w", op, ErrWouldBlock)
	}

	osErr := &OSError{Op: op, Code: errno, Msg: msg}
	fd.log.Log(SeverityError, osErr.Error())

	return osErr
}

// ignoringEINTR runs fn, retrying while it reports interruption by a signal.
// The retry is invisible to callers.
func ignoringEINTR(fn func() error) error {
	var err error
	for i := 0; i < maxEINTRRetries; i++ {
		err = fn()
		if err == nil || !errors.Is(err, syscall.EINTR) {
			return err
		}
	}

	return err
}

// ignoringEINTR2 is ignoringEINTR for calls that also return a byte count.
func ignoringEINTR2(fn func() (int, error)) (int, error) {
	var (
		n   int
		err error
	)

	for i := 0; i < maxEINTRRetries; i++ {
		n, err = fn()
		if err == nil || !errors.Is(err, syscall.EINTR) {
			return n, err
		}
	}

	return n, err
}
