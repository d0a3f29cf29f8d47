package filefd

// sysFile is the platform syscall surface behind a [FileFd].
//
// Exactly one concrete implementation is compiled in, selected by build tags:
// posixFile (sys_unix.go) on POSIX systems, winFile (sys_windows.go) on
// Windows. FileFd itself is platform-agnostic and only calls through this
// interface, which also lets tests substitute a scripted double.
//
// Methods return errors exactly as the native layer produced them (a
// syscall.Errno from x/sys, captured in the same statement as the call).
// Classification, context, and logging happen in FileFd.
type sysFile interface {
	// Read transfers up to len(p) bytes from the sequential cursor.
	Read(p []byte) (int, error)

	// Write transfers up to len(p) bytes at the sequential cursor.
	Write(p []byte) (int, error)

	// Pread reads at an explicit offset without touching the cursor.
	// Implementations must use the platform's positioned-read primitive,
	// never seek-then-read.
	Pread(p []byte, offset int64) (int, error)

	// Pwrite writes at an explicit offset without touching the cursor.
	Pwrite(p []byte, offset int64) (int, error)

	// LockNB attempts one non-blocking advisory whole-file lock transition.
	LockNB(mode LockMode) error

	// Stat returns a fresh metadata snapshot.
	Stat() (Stat, error)

	// Sync flushes buffered writes to stable storage.
	Sync() error

	// Seek repositions the sequential cursor to an absolute byte position.
	Seek(position int64) error

	// Truncate sets end-of-file to size bytes.
	Truncate(size int64) error
}

// LockMode selects the advisory lock transition requested by [FileFd.Lock].
// Modes are mutually exclusive; there is no combination.
type LockMode int32

const (
	// LockShared acquires a shared (read) lock. Multiple processes may hold
	// shared locks simultaneously.
	LockShared LockMode = iota + 1

	// LockExclusive acquires an exclusive (write) lock.
	LockExclusive

	// LockUnlock releases any lock held through this handle.
	LockUnlock
)

// String returns the lower-case mode name for error messages.
func (m LockMode) String() string {
	switch m {
	case LockShared:
		return "shared"
	case LockExclusive:
		return "exclusive"
	case LockUnlock:
		return "unlock"
	default:
		return "invalid"
	}
}
