//go:build !unix

package peercred

func classify(_ int, err error) error {
	return err
}
