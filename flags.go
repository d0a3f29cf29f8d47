package filefd

import (
	"fmt"
	"strings"
)

// OpenFlags selects the access mode and creation behavior of [Open] as a
// bitmask. At least one of [Read] or [Write] must be set.
type OpenFlags int32

const (
	// Write requests write access through the handle.
	Write OpenFlags = 1 << iota
	// Read requests read access through the handle.
	Read
	// Truncate discards existing content at open time.
	Truncate
	// Create creates the file when it does not exist yet.
	Create
	// Append positions every sequential write at end-of-file.
	Append
	// CreateNew creates the file and fails when it already exists. When
	// both Create and CreateNew are set, Create wins.
	CreateNew
)

// knownFlags is the union of every defined flag bit.
const knownFlags = Write | Read | Truncate | Create | Append | CreateNew

// Validate reports whether f is a combination [Open] accepts. A failure
// wraps [ErrInvalidInput].
func (f OpenFlags) Validate() error {
	if f&^knownFlags != 0 {
		return fmt.Errorf("%w: file has failed to be %s", ErrInvalidInput, f)
	}

	if f&(Read|Write) == 0 {
		return fmt.Errorf("%w: file can't be %s", ErrInvalidInput, f)
	}

	return nil
}

// String renders the flags as the verb clause of an error sentence, for
// example "opened/created for reading and writing with truncation". Invalid
// combinations still render, so failed validations stay describable.
func (f OpenFlags) String() string {
	if f&^knownFlags != 0 {
		return fmt.Sprintf("opened with invalid flags %d", int32(f))
	}

	var b strings.Builder

	switch {
	case f&Create != 0:
		b.WriteString("opened/created ")
	case f&CreateNew != 0:
		b.WriteString("created ")
	default:
		b.WriteString("opened ")
	}

	switch {
	case f&Read != 0 && f&Write != 0 && f&Append != 0:
		b.WriteString("for reading and appending")
	case f&Read != 0 && f&Write != 0:
		b.WriteString("for reading and writing")
	case f&Write != 0 && f&Append != 0:
		b.WriteString("for appending")
	case f&Write != 0:
		b.WriteString("for writing")
	case f&Read != 0:
		b.WriteString("for reading")
	default:
		b.WriteString("for nothing")
	}

	if f&Truncate != 0 {
		b.WriteString(" with truncation")
	}

	return b.String()
}
