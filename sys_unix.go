//go:build unix

package filefd

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// posixFile implements [sysFile] on POSIX file descriptors via
// golang.org/x/sys/unix. It does not own the descriptor; ownership stays
// with the handle's [ReadinessState].
type posixFile struct {
	fd int
}

func newSysFile(nfd NativeFd) sysFile {
	return &posixFile{fd: nfd.Raw()}
}

// sysOpen translates flags to a native open request and issues it.
// flags must already be validated.
func sysOpen(path string, flags OpenFlags, perm uint32) (NativeFd, error) {
	var nativeFlags int

	switch {
	case flags&Write != 0 && flags&Read != 0:
		nativeFlags = unix.O_RDWR
	case flags&Write != 0:
		nativeFlags = unix.O_WRONLY
	default:
		nativeFlags = unix.O_RDONLY
	}

	if flags&Truncate != 0 {
		nativeFlags |= unix.O_TRUNC
	}

	if flags&Create != 0 {
		nativeFlags |= unix.O_CREAT
	} else if flags&CreateNew != 0 {
		nativeFlags |= unix.O_CREAT | unix.O_EXCL
	}

	if flags&Append != 0 {
		nativeFlags |= unix.O_APPEND
	}

	raw, err := ignoringEINTR2(func() (int, error) {
		return unix.Open(path, nativeFlags, perm)
	})
	if err != nil {
		return NativeFd{}, err
	}

	return NewNativeFd(raw), nil
}

func (f *posixFile) Read(p []byte) (int, error) {
	return unix.Read(f.fd, p)
}

func (f *posixFile) Write(p []byte) (int, error) {
	return unix.Write(f.fd, p)
}

func (f *posixFile) Pread(p []byte, offset int64) (int, error) {
	return unix.Pread(f.fd, p, offset)
}

func (f *posixFile) Pwrite(p []byte, offset int64) (int, error) {
	return unix.Pwrite(f.fd, p, offset)
}

// LockNB performs one non-blocking flock(2) transition.
//
// flock locks are per-descriptor, so two handles on the same file observe
// each other's locks even inside one process. They are advisory: only other
// lock-aware processes are constrained.
func (f *posixFile) LockNB(mode LockMode) error {
	var how int

	switch mode {
	case LockShared:
		how = unix.LOCK_SH | unix.LOCK_NB
	case LockExclusive:
		how = unix.LOCK_EX | unix.LOCK_NB
	case LockUnlock:
		how = unix.LOCK_UN
	}

	return unix.Flock(f.fd, how)
}

func (f *posixFile) Stat() (Stat, error) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return Stat{}, err
	}

	atime, mtime := statTimes(&st)

	return Stat{
		Size:      st.Size,
		AtimeNsec: atime,
		MtimeNsec: mtime,
		IsDir:     st.Mode&unix.S_IFMT == unix.S_IFDIR,
		IsReg:     st.Mode&unix.S_IFMT == unix.S_IFREG,
	}, nil
}

func (f *posixFile) Sync() error {
	return unix.Fsync(f.fd)
}

func (f *posixFile) Seek(position int64) error {
	_, err := unix.Seek(f.fd, position, 0)

	return err
}

func (f *posixFile) Truncate(size int64) error {
	return unix.Ftruncate(f.fd, size)
}

// statTimes normalizes the native timespec fields to Unix-epoch nanoseconds.
func statTimes(st *unix.Stat_t) (atimeNsec, mtimeNsec int64) {
	return unix.TimespecToNsec(st.Atim), unix.TimespecToNsec(st.Mtim)
}

// isTransientErrno reports whether errno indicates the operation may succeed
// if retried later. EIO counts: it is expected under partial I/O and must not
// be logged at error severity.
func isTransientErrno(errno syscall.Errno) bool {
	return errno == unix.EAGAIN || errno == unix.EWOULDBLOCK || errno == unix.EIO
}

// isLockContention reports whether errno means another process currently
// holds a conflicting lock.
func isLockContention(errno syscall.Errno) bool {
	return errno == unix.EAGAIN || errno == unix.EWOULDBLOCK
}
