package scan

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	mfs "github.com/CageChen/fileorganizer/internal/fs"
)

// Unknown is what file_type, created and modified hold when the value is unavailable.
const Unknown = "unknown"

// Timestamp is a point in time that may be unavailable on the current platform or filesystem.
// The zero value is unavailable.
type Timestamp struct {
	t  time.Time
	ok bool
}

// KnownTime wraps t as an available timestamp.
func KnownTime(t time.Time) Timestamp {
	return Timestamp{t: t, ok: true}
}

// Known reports whether the timestamp carries a value.
func (ts Timestamp) Known() bool {
	return ts.ok
}

// Time returns the wrapped time and whether it is available.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.t, ts.ok
}

// String formats the timestamp as RFC 3339 in UTC, or Unknown.
func (ts Timestamp) String() string {
	if !ts.ok {
		return Unknown
	}
	return ts.t.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == Unknown || s == "" {
		*ts = Timestamp{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*ts = KnownTime(t)
	return nil
}

// FileMeta is the metadata recorded for one scanned file.
type FileMeta struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	FileType string    `json:"file_type"`
	Size     uint64    `json:"size"`
	Created  Timestamp `json:"created"`
	Modified Timestamp `json:"modified"`
}

// FileType returns the lowercased extension of name without its dot, or Unknown.
// Dotfiles such as ".bashrc" and names ending in "." have no extension.
func FileType(name string) string {
	ext := filepath.Ext(name)
	if len(ext) <= 1 || ext == name {
		return Unknown
	}
	return strings.ToLower(ext[1:])
}

func newFileMeta(path string, info mfs.FileInfo) FileMeta {
	m := FileMeta{
		Name:     info.Name,
		Path:     path,
		FileType: FileType(info.Name),
	}
	if info.Size > 0 {
		m.Size = uint64(info.Size)
	}
	if info.HasCreated {
		m.Created = KnownTime(info.Created)
	}
	if !info.ModTime.IsZero() {
		m.Modified = KnownTime(info.ModTime)
	}
	return m
}
