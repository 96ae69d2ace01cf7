//go:build !linux && !darwin && !freebsd && !dragonfly && !netbsd && !(openbsd && cgo)

package peercred

import (
	"fmt"
	"runtime"
)

const (
	mechanism       = "none"
	mechanismHasPID = false
)

func query(int, bool) (Credentials, error) {
	return Credentials{}, fmt.Errorf("%w on %s", ErrUnsupported, runtime.GOOS)
}
