//go:build windows

package projection

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/windows"
)

// Creating a directory symlink needs SeCreateSymbolicLinkPrivilege or
// Developer Mode on Windows.
func isPrivilegeError(err error) bool {
	return errors.Is(err, windows.ERROR_PRIVILEGE_NOT_HELD) || errors.Is(err, fs.ErrPermission)
}
