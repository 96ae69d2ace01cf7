//go:build unix

package cli

import "golang.org/x/sys/unix"

const umaskSupported = true

func setUmask(umask int) int {
	return unix.Umask(umask)
}
