// Package fs provides the filesystem abstraction the scanner and the folder picker read through.
package fs

import "time"

// FileInfo holds file metadata.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time

	// Created is the birth time of the file. It is only meaningful when
	// HasCreated is true; many filesystems do not record one.
	Created    time.Time
	HasCreated bool
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name      string
	IsDir     bool
	IsSymlink bool
}

// FileSystem abstracts the read-only file operations used by the scanner.
// Paths are relative to the implementation's root.
type FileSystem interface {
	Stat(path string) (FileInfo, error)
	Lstat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
	// RealPath resolves every symlink in path and returns an absolute path.
	RealPath(path string) (string, error)
}
