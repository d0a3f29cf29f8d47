//go:build windows

package filefd

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// winFile implements [sysFile] on Windows handles via
// golang.org/x/sys/windows. It does not own the handle; ownership stays with
// the handle's [ReadinessState].
type winFile struct {
	h windows.Handle
}

func newSysFile(nfd NativeFd) sysFile {
	return &winFile{h: nfd.Raw()}
}

// sysOpen translates flags to a CreateFile request and issues it.
// flags must already be validated.
//
// Windows has no native append mode, so Append is emulated by repositioning
// the pointer to end-of-file after a successful open. A reposition failure
// surfaces as an OS error distinct from an open failure.
func sysOpen(path string, flags OpenFlags, perm uint32) (NativeFd, error) {
	_ = perm // TODO: map POSIX permission bits onto a security descriptor

	wpath, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return NativeFd{}, fmt.Errorf("%w: converting path %q to UTF-16: %v", ErrInvalidInput, path, err)
	}

	var access uint32

	switch {
	case flags&Write != 0 && flags&Read != 0:
		access = windows.GENERIC_READ | windows.GENERIC_WRITE
	case flags&Write != 0:
		access = windows.GENERIC_WRITE
	default:
		access = windows.GENERIC_READ
	}

	shareMode := uint32(windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE | windows.FILE_SHARE_DELETE)

	var disposition uint32

	switch {
	case flags&Create != 0 && flags&Truncate != 0:
		disposition = windows.CREATE_ALWAYS
	case flags&Create != 0:
		disposition = windows.OPEN_ALWAYS
	case flags&CreateNew != 0:
		disposition = windows.CREATE_NEW
	case flags&Truncate != 0:
		disposition = windows.TRUNCATE_EXISTING
	default:
		disposition = windows.OPEN_EXISTING
	}

	h, err := windows.CreateFile(wpath, access, shareMode, nil, disposition, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		return NativeFd{}, err
	}

	if flags&Append != 0 {
		if _, err := windows.Seek(h, 0, windows.FILE_END); err != nil {
			seekErr := newOSError("open", err, fmt.Sprintf("failed to seek to the end of file %q", path))
			_ = windows.CloseHandle(h)

			return NativeFd{}, seekErr
		}
	}

	return NewNativeFd(h), nil
}

func (f *winFile) Read(p []byte) (int, error) {
	var done uint32
	if err := windows.ReadFile(f.h, p, &done, nil); err != nil {
		return 0, err
	}

	return int(done), nil
}

func (f *winFile) Write(p []byte) (int, error) {
	var done uint32
	if err := windows.WriteFile(f.h, p, &done, nil); err != nil {
		return 0, err
	}

	return int(done), nil
}

func (f *winFile) Pread(p []byte, offset int64) (int, error) {
	overlapped := windows.Overlapped{
		Offset:     uint32(offset),
		OffsetHigh: uint32(offset >> 32),
	}

	var done uint32
	if err := windows.ReadFile(f.h, p, &done, &overlapped); err != nil {
		return 0, err
	}

	return int(done), nil
}

func (f *winFile) Pwrite(p []byte, offset int64) (int, error) {
	overlapped := windows.Overlapped{
		Offset:     uint32(offset),
		OffsetHigh: uint32(offset >> 32),
	}

	var done uint32
	if err := windows.WriteFile(f.h, p, &done, &overlapped); err != nil {
		return 0, err
	}

	return int(done), nil
}

// LockNB performs one non-blocking LockFileEx/UnlockFileEx transition over
// the entire file range. Like flock, the lock is advisory between lock-aware
// processes and held per handle.
func (f *winFile) LockNB(mode LockMode) error {
	var overlapped windows.Overlapped

	const wholeFile = ^uint32(0)

	if mode == LockUnlock {
		return windows.UnlockFileEx(f.h, 0, wholeFile, wholeFile, &overlapped)
	}

	lockFlags := uint32(windows.LOCKFILE_FAIL_IMMEDIATELY)
	if mode == LockExclusive {
		lockFlags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}

	return windows.LockFileEx(f.h, lockFlags, 0, wholeFile, wholeFile, &overlapped)
}

func (f *winFile) Stat() (Stat, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(f.h, &info); err != nil {
		return Stat{}, err
	}

	isDir := info.FileAttributes&windows.FILE_ATTRIBUTE_DIRECTORY != 0

	return Stat{
		Size:      int64(info.FileSizeHigh)<<32 | int64(info.FileSizeLow),
		AtimeNsec: info.LastAccessTime.Nanoseconds(),
		MtimeNsec: info.LastWriteTime.Nanoseconds(),
		IsDir:     isDir,
		IsReg:     !isDir,
	}, nil
}

func (f *winFile) Sync() error {
	return windows.FlushFileBuffers(f.h)
}

func (f *winFile) Seek(position int64) error {
	_, err := windows.Seek(f.h, position, windows.FILE_BEGIN)

	return err
}

// Truncate sets end-of-file to size bytes. SetEndOfFile cuts at the live
// pointer, so the pointer is moved to size first and restored afterwards to
// keep the sequential cursor undisturbed.
func (f *winFile) Truncate(size int64) error {
	cur, err := windows.Seek(f.h, 0, windows.FILE_CURRENT)
	if err != nil {
		return err
	}

	if _, err := windows.Seek(f.h, size, windows.FILE_BEGIN); err != nil {
		return err
	}

	truncErr := windows.SetEndOfFile(f.h)

	if _, err := windows.Seek(f.h, cur, windows.FILE_BEGIN); err != nil && truncErr == nil {
		return err
	}

	return truncErr
}

// isTransientErrno reports whether errno indicates the operation may succeed
// if retried later.
func isTransientErrno(errno syscall.Errno) bool {
	return errno == windows.ERROR_IO_PENDING || errno == windows.WSAEWOULDBLOCK
}

// isLockContention reports whether errno means another process currently
// holds a conflicting lock.
func isLockContention(errno syscall.Errno) bool {
	return errno == windows.ERROR_LOCK_VIOLATION
}
