// Package atomicio provides the write-temp-then-rename discipline every
// persisted JSON file in the mesh uses, plus the exclusive-create lock
// files that serialize shared mutations.
package atomicio

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteFileAtomic writes data to a sibling temp file named with the
// current PID and a timestamp, then renames it into place. A reader that
// observes a crash mid-write will never see a partial file at path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp.%d.%d", filepath.Base(path), os.Getpid(), time.Now().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// WriteJSONAtomic marshals v and writes it atomically to path.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return WriteFileAtomic(path, data, 0o644)
}

// ReadJSON reads and unmarshals path into v. Callers that want the
// "malformed files are skipped silently" behavior should check for a
// json.SyntaxError/json.UnmarshalTypeError and treat it as absent rather
// than propagating the error.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// RandomSuffix returns a short hex string suitable for disambiguating
// filenames written in the same nanosecond by different processes.
func RandomSuffix() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%x", b)
}

// TimestampedName builds "<unixnano>-<randsuffix><ext>", the naming
// scheme used for inbox messages and queued entries that must sort in
// delivery order while staying collision-free across processes.
func TimestampedName(ext string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), RandomSuffix(), ext)
}
