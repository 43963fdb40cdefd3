package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bling-controller/internal/bling"
	"bling-controller/internal/config"
)

func TestRunMenu(t *testing.T) {
	cfg := config.Default()
	cfg.Strip.NumLEDs = 16
	p, closeFn, err := openLocal(cfg)
	require.NoError(t, err)
	defer closeFn()

	in := strings.NewReader("17\nb 40\nb 900\n42\nabc\n\nq\n")
	var out bytes.Buffer
	require.NoError(t, runMenu(p, in, &out))

	text := out.String()
	assert.Contains(t, text, "Available Bling Patterns")
	assert.Contains(t, text, "Pattern=Solid,Color=RED -> OK")
	assert.Contains(t, text, "brightness 40")
	assert.Contains(t, text, "brightness: ")
	assert.Contains(t, text, bling.ErrUnknownSelection.Error())
	assert.Contains(t, text, `not a selection: "abc"`)
	assert.Contains(t, text, "stopped")
	assert.Equal(t, uint8(40), p.Brightness())
	assert.Equal(t, "", p.Running())
}
