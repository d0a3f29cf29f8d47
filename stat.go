package filefd

// Stat is a point-in-time metadata snapshot of an open file.
//
// Access and modification times are Unix-epoch nanoseconds on every platform,
// normalized from the native epoch and resolution. Snapshots are produced
// fresh on each [FileFd.Stat] call and never cached.
type Stat struct {
	// Size is the file size in bytes.
	Size int64

	// AtimeNsec is the last-access time in nanoseconds since the Unix epoch.
	AtimeNsec int64

	// MtimeNsec is the last-modification time in nanoseconds since the Unix
	// epoch.
	MtimeNsec int64

	// IsDir reports whether the file is a directory.
	IsDir bool

	// IsReg reports whether the file is a regular file.
	IsReg bool
}
