// Package ingest discovers order documents on the local filesystem.
package ingest

// DocumentFile is one discovered document.
type DocumentFile struct {
	Path    string // absolute
	Name    string // base name
	Ext     string // lowercased, without '.'
	Size    int64
	HashHex string // sha256 of the content
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// ScanOptions controls ScanDirectory.
type ScanOptions struct {
	Recursive  bool // descend into subdirectories
	SkipHidden bool // ignore dot files and dot directories
}
