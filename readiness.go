package filefd

// ReadinessState is per-handle bookkeeping of whether the handle is currently
// expected to satisfy a read or a write without blocking. An external reactor
// consults these flags; [FileFd] mutates them as a side effect of I/O:
//
//   - a fresh handle is marked Writable (optimistic initial readiness)
//   - a read that returns fewer bytes than requested clears Readable
//   - a full read sets Readable again (the flag is advisory, not sticky)
//
// ReadinessState exclusively owns the handle's [NativeFd]. It is not safe for
// concurrent use without external synchronization, matching [FileFd].
type ReadinessState struct {
	nfd      NativeFd
	readable bool
	writable bool
}

func newReadinessState(nfd NativeFd) *ReadinessState {
	return &ReadinessState{nfd: nfd}
}

// Readable reports whether the handle is expected to satisfy a read without
// blocking.
func (s *ReadinessState) Readable() bool { return s.readable }

// Writable reports whether the handle is expected to satisfy a write without
// blocking.
func (s *ReadinessState) Writable() bool { return s.writable }

// SetReadable marks the handle as read-ready.
func (s *ReadinessState) SetReadable() { s.readable = true }

// SetWritable marks the handle as write-ready.
func (s *ReadinessState) SetWritable() { s.writable = true }

// ClearReadable marks the handle as not read-ready. FileFd calls this after a
// short or zero read; it signals "no more data ready now", not permanent EOF.
func (s *ReadinessState) ClearReadable() { s.readable = false }

// ClearWritable marks the handle as not write-ready.
func (s *ReadinessState) ClearWritable() { s.writable = false }

// Native returns the owned descriptor without transferring ownership.
func (s *ReadinessState) Native() NativeFd { return s.nfd }

// moveNative transfers ownership of the descriptor out of s, leaving it empty.
func (s *ReadinessState) moveNative() NativeFd {
	nfd := s.nfd
	s.nfd = NativeFd{}

	return nfd
}

// close releases the owned descriptor. Idempotent.
func (s *ReadinessState) close() error {
	return s.nfd.Close()
}
