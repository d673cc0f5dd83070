package generator

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteError reports that the destination artifact could not be written or
// moved into place. It wraps the underlying I/O cause.
type WriteError struct {
	Path string
	Err  error
}

// Error implements the error interface for WriteError.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write pipeline output %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying I/O error to errors.Is/As.
func (e *WriteError) Unwrap() error { return e.Err }

// WriteFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename, so a partially written artifact is never
// observable at the final path. On any failure the temporary file is
// removed and a *WriteError is returned.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil {
		writeErr = os.Rename(tmpName, path)
	}
	if writeErr != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: writeErr}
	}
	return nil
}
