package mods

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateProfile      = errors.New("profile already exists")
	ErrProfileNotFound       = errors.New("profile not found")
	ErrModNotFound           = errors.New("mod not found")
	ErrDuplicateModID        = errors.New("duplicate mod unique id")
	ErrInvalidName           = errors.New("invalid name")
	ErrNotFound              = errors.New("entry not found")
	ErrInsufficientPrivilege = errors.New("insufficient privilege to create link")
	ErrLinkUnsupported       = errors.New("filesystem does not support links")
	ErrFilesystemDrift       = errors.New("filesystem drift")
	ErrNoManifest            = errors.New("no manifest")
	ErrMalformedManifest     = errors.New("malformed manifest")
)

// ScanError is a per-directory scan failure. The scan skips the directory
// and keeps going.
type ScanError struct {
	Dir string
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Dir, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ProjectionWarning reports a filesystem step that failed after its store
// mutation was already committed. The store stays authoritative; a later
// reconcile brings the profile directory back in line.
type ProjectionWarning struct {
	Op      string
	Profile string
	Name    string
	Err     error
}

func (w *ProjectionWarning) Error() string {
	if w.Name != "" {
		return fmt.Sprintf("%s %s/%s: %v", w.Op, w.Profile, w.Name, w.Err)
	}
	return fmt.Sprintf("%s %s: %v", w.Op, w.Profile, w.Err)
}

func (w *ProjectionWarning) Unwrap() error { return w.Err }
