//go:build !darwin && !freebsd && !dragonfly

package peercred

import (
	"fmt"
)

const mechanismHasGroups = false

func queryGroups(int) ([]uint32, error) {
	return nil, fmt.Errorf("%w: %s does not report supplementary groups", ErrUnsupported, mechanism)
}
