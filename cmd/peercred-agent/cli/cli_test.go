package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCommands(t *testing.T) {
	c := new(CLI)

	assert.Equal(t, 0, c.Run(context.Background(), []string{"mechanism"}))
	assert.Equal(t, 0, c.Run(context.Background(), []string{"-version"}))
	assert.Equal(t, 127, c.Run(context.Background(), []string{"attest"}))
}
