package observability

import (
	"os"
	"path/filepath"
)

// rotatingFile appends to path and shifts it to path.1 once it grows past
// limit bytes. Only one previous generation is kept.
type rotatingFile struct {
	path  string
	limit int64
}

func (r *rotatingFile) append(line []byte) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	if info, err := os.Stat(r.path); err == nil && info.Size() > r.limit {
		if err := os.Rename(r.path, r.path+".1"); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
