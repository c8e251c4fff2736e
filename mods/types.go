// Package mods holds the records shared by the scanner, the store, the
// link projector and the manager.
package mods

import (
	"time"
)

// Mod is the identity of one mod directory found under the mods root.
//
// UniqueID addresses the record in the store, Folder addresses the link in a
// profile directory. The two are unrelated and both are carried explicitly.
type Mod struct {
	UniqueID    string
	Name        string
	Version     string
	Description string
	Folder      string // last path segment of Path at scan time
	Path        string // absolute location of the mod directory
}

// Profile is a named set of mods that are meant to be active together.
type Profile struct {
	Name        string
	Description string
	CreatedAt   time.Time
}
