//go:build !windows

package projection

import (
	"errors"
	"io/fs"
)

func isPrivilegeError(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
