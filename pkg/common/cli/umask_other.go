//go:build !unix

package cli

const umaskSupported = false

func setUmask(int) int {
	return 0
}
