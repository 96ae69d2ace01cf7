package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl"
)

// ParseHCLFile reads the file at path and decodes it into s, which must be a
// pointer to a struct with hcl tags. When expandEnv is set, $VAR and ${VAR}
// references are replaced with environment values before parsing.
func ParseHCLFile(path string, expandEnv bool, s any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read configuration at %q: %w", path, err)
	}

	text := string(data)
	if expandEnv {
		text = os.ExpandEnv(text)
	}

	if err := ParseHCL(text, s); err != nil {
		return fmt.Errorf("unable to decode configuration at %q: %w", path, err)
	}
	return nil
}

// ParseHCL decodes HCL text into s.
func ParseHCL(text string, s any) error {
	tree, err := hcl.Parse(text)
	if err != nil {
		return err
	}
	return hcl.DecodeObject(s, tree)
}
