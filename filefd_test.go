package filefd

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openTemp(t *testing.T, flags OpenFlags) (*FileFd, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "file")

	fd, err := Open(path, flags, 0o644)
	if err != nil {
		t.Fatalf("Open(%q, %s): %v", path, flags, err)
	}
	t.Cleanup(func() { _ = fd.Close() })

	return fd, path
}

func Test_FileFd_Write_Seek_Read_Roundtrips(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	payload := []byte("the quick brown fox")

	n, err := fd.Write(payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Write: n=%d, want %d", n, len(payload))
	}

	if err := fd.Seek(0); err != nil {
		t.Fatalf("Seek(0): %v", err)
	}

	got := make([]byte, len(payload))
	n, err = fd.Read(got)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(payload) || !bytes.Equal(got[:n], payload) {
		t.Fatalf("Read: got %q (n=%d), want %q", got[:n], n, payload)
	}
}

func Test_FileFd_Positioned_IO_Ignores_Sequential_Cursor(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	// Interleave sequential traffic to prove positioned I/O neither observes
	// nor disturbs the cursor.
	if _, err := fd.Write([]byte("sequential prefix")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	payload := []byte("positioned payload")
	const offset = 4096

	n, err := fd.Pwrite(payload, offset)
	if err != nil {
		t.Fatalf("Pwrite(offset=%d): %v", offset, err)
	}
	if n != len(payload) {
		t.Fatalf("Pwrite: n=%d, want %d", n, len(payload))
	}

	if err := fd.Seek(3); err != nil {
		t.Fatalf("Seek(3): %v", err)
	}
	if _, err := fd.Write([]byte("more sequential")); err != nil {
		t.Fatalf("Write after seek: %v", err)
	}

	got := make([]byte, len(payload))
	n, err = fd.Pread(got, offset)
	if err != nil {
		t.Fatalf("Pread(offset=%d): %v", offset, err)
	}
	if n != len(payload) || !bytes.Equal(got[:n], payload) {
		t.Fatalf("Pread: got %q (n=%d), want %q", got[:n], n, payload)
	}

	// The sequential cursor must still sit where Write left it (3+15=18):
	// a sequential write lands there, not at the positioned offset.
	if _, err := fd.Write([]byte("ZZ")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	at18 := make([]byte, 2)
	if _, err := fd.Pread(at18, 18); err != nil {
		t.Fatalf("Pread(18): %v", err)
	}
	if string(at18) != "ZZ" {
		t.Fatalf("bytes at 18: %q, want %q (positioned I/O disturbed the cursor)", at18, "ZZ")
	}
}

func Test_FileFd_Pread_Pwrite_Reject_Negative_Offset(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	if _, err := fd.Pread(make([]byte, 4), -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Pread(-1): err=%v, want %v", err, ErrInvalidInput)
	}
	if _, err := fd.Pwrite([]byte("x"), -7); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Pwrite(-7): err=%v, want %v", err, ErrInvalidInput)
	}
}

func Test_Open_CreateNew_Fails_When_File_Exists(t *testing.T) {
	t.Parallel()

	fd, path := openTemp(t, Read|Write|CreateNew)

	st, err := fd.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Size != 0 {
		t.Fatalf("Stat.Size of fresh file: %d, want 0", st.Size)
	}

	_, err = Open(path, Read|Write|CreateNew, 0o644)

	var osErr *OSError
	if !errors.As(err, &osErr) {
		t.Fatalf("Open(CreateNew) on existing file: err=%v, want *OSError", err)
	}
	if osErr.Op != "open" {
		t.Fatalf("OSError.Op=%q, want %q", osErr.Op, "open")
	}
}

func Test_Open_Without_Create_Fails_On_Missing_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing")

	_, err := Open(path, Read|Write, 0o644)

	var osErr *OSError
	if !errors.As(err, &osErr) {
		t.Fatalf("Open on missing file: err=%v, want *OSError", err)
	}
}

func Test_Open_Truncate_Discards_Existing_Content(t *testing.T) {
	t.Parallel()

	fd, path := openTemp(t, Read|Write|Create)

	if _, err := fd.Write([]byte("stale content")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := fd.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fd2, err := Open(path, Read|Write|Truncate, 0o644)
	if err != nil {
		t.Fatalf("Open(Truncate): %v", err)
	}
	defer fd2.Close()

	size, err := fd2.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 0 {
		t.Fatalf("Size after open with truncation: %d, want 0", size)
	}
}

func Test_Open_Append_Positions_Writes_At_End(t *testing.T) {
	t.Parallel()

	fd, path := openTemp(t, Read|Write|Create)

	if _, err := fd.Write([]byte("head")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := fd.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fd2, err := Open(path, Write|Append, 0o644)
	if err != nil {
		t.Fatalf("Open(Append): %v", err)
	}
	defer fd2.Close()

	if _, err := fd2.Write([]byte("tail")); err != nil {
		t.Fatalf("Write in append mode: %v", err)
	}

	fd3, err := Open(path, Read, 0)
	if err != nil {
		t.Fatalf("Open for verify: %v", err)
	}
	defer fd3.Close()

	got := make([]byte, 16)
	n, err := fd3.Read(got)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got[:n]) != "headtail" {
		t.Fatalf("content: %q, want %q", got[:n], "headtail")
	}
}

func Test_FileFd_Sync_Then_Stat_Reports_Written_Size(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	payload := bytes.Repeat([]byte("abc"), 341)

	n, err := fd.Write(payload)
	if err != nil || n != len(payload) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}

	if err := fd.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	st, err := fd.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	want := Stat{
		Size:      int64(len(payload)),
		AtimeNsec: st.AtimeNsec,
		MtimeNsec: st.MtimeNsec,
		IsDir:     false,
		IsReg:     true,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Fatalf("Stat mismatch (-want +got):\n%s", diff)
	}

	if st.MtimeNsec <= 0 || st.AtimeNsec <= 0 {
		t.Fatalf("Stat times not normalized to unix nanoseconds: atime=%d mtime=%d", st.AtimeNsec, st.MtimeNsec)
	}

	// Sanity: mtime should be recent (within the last hour).
	now := time.Now().UnixNano()
	if st.MtimeNsec > now || st.MtimeNsec < now-int64(time.Hour) {
		t.Fatalf("Stat.MtimeNsec=%d implausible for now=%d", st.MtimeNsec, now)
	}
}

func Test_FileFd_Stat_Snapshots_Are_Fresh(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	before, err := fd.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if before.Size != 0 {
		t.Fatalf("Stat.Size: %d, want 0", before.Size)
	}

	if _, err := fd.Write([]byte("grow")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	after, err := fd.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if after.Size != 4 {
		t.Fatalf("Stat.Size after write: %d, want 4 (snapshot was cached?)", after.Size)
	}
}

func Test_FileFd_Readable_Flag_Tracks_Short_Reads(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	if _, err := fd.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := fd.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	// Full read: readiness is marked readable again.
	n, err := fd.Read(make([]byte, 4))
	if err != nil || n != 4 {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if !fd.Readiness().Readable() {
		t.Fatal("Readable flag clear after a full read")
	}

	// Short read at EOF: 6 bytes remain, buffer wants 16.
	n, err = fd.Read(make([]byte, 16))
	if err != nil || n != 6 {
		t.Fatalf("Read near EOF: n=%d err=%v", n, err)
	}
	if fd.Readiness().Readable() {
		t.Fatal("Readable flag still set after a short read")
	}

	// Zero read at EOF keeps it clear.
	n, err = fd.Read(make([]byte, 8))
	if err != nil || n != 0 {
		t.Fatalf("Read at EOF: n=%d err=%v", n, err)
	}
	if fd.Readiness().Readable() {
		t.Fatal("Readable flag set after a zero read")
	}

	// The flag is advisory, not sticky: a later full read sets it again.
	if err := fd.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := fd.Read(make([]byte, 10)); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !fd.Readiness().Readable() {
		t.Fatal("Readable flag not restored by a subsequent full read")
	}
}

func Test_FileFd_Open_Marks_Handle_Writable(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	if !fd.Readiness().Writable() {
		t.Fatal("fresh handle not marked Writable")
	}
	if fd.Readiness().Readable() {
		t.Fatal("fresh handle marked Readable before any I/O")
	}
}

func Test_FileFd_Close_Is_Idempotent(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	if fd.Empty() {
		t.Fatal("Empty() true for an open handle")
	}

	if err := fd.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fd.Empty() {
		t.Fatal("Empty() false after Close")
	}

	if err := fd.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func Test_FileFd_Operations_Panic_On_Empty_Handle(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)
	if err := fd.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	assertPanics := func(name string, fn func()) {
		t.Helper()

		defer func() {
			if recover() == nil {
				t.Fatalf("%s on closed handle did not panic", name)
			}
		}()

		fn()
	}

	assertPanics("Read", func() { _, _ = fd.Read(make([]byte, 1)) })
	assertPanics("Write", func() { _, _ = fd.Write([]byte("x")) })
	assertPanics("Pread", func() { _, _ = fd.Pread(make([]byte, 1), 0) })
	assertPanics("Pwrite", func() { _, _ = fd.Pwrite([]byte("x"), 0) })
	assertPanics("Stat", func() { _, _ = fd.Stat() })
	assertPanics("Sync", func() { _ = fd.Sync() })
	assertPanics("Seek", func() { _ = fd.Seek(0) })
	assertPanics("Truncate", func() { _ = fd.Truncate(0) })
	assertPanics("Lock", func() { _ = fd.Lock(LockExclusive, 1) })
	assertPanics("Native", func() { _ = fd.Native() })
	assertPanics("ReleaseNative", func() { _ = fd.ReleaseNative() })
	assertPanics("Readiness", func() { _ = fd.Readiness() })
}

func Test_FileFd_ReleaseNative_Empties_Handle_Without_Closing(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	if _, err := fd.Write([]byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	nfd := fd.ReleaseNative()
	if !fd.Empty() {
		t.Fatal("handle not empty after ReleaseNative")
	}
	if nfd.Empty() {
		t.Fatal("released NativeFd is empty")
	}

	// The descriptor must still be live: adopt it into a fresh handle.
	adopted := FromNative(nfd)
	defer adopted.Close()

	if !adopted.Readiness().Writable() {
		t.Fatal("adopted handle not marked Writable")
	}

	size, err := adopted.Size()
	if err != nil {
		t.Fatalf("Size on adopted handle: %v", err)
	}
	if size != 7 {
		t.Fatalf("Size on adopted handle: %d, want 7", size)
	}
}

func Test_FileFd_Truncate_Sets_End_Of_File(t *testing.T) {
	t.Parallel()

	fd, _ := openTemp(t, Read|Write|Create)

	if _, err := fd.Write(bytes.Repeat([]byte{0xAB}, 100)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := fd.Truncate(37); err != nil {
		t.Fatalf("Truncate(37): %v", err)
	}

	size, err := fd.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 37 {
		t.Fatalf("Size after Truncate(37): %d, want 37", size)
	}

	// Growing via truncate works too.
	if err := fd.Truncate(64); err != nil {
		t.Fatalf("Truncate(64): %v", err)
	}
	size, err = fd.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 64 {
		t.Fatalf("Size after Truncate(64): %d, want 64", size)
	}
}
