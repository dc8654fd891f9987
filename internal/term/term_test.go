package term

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backmassage/dlogconv/internal/config"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { Configure(config.ColorNever) })

	Configure(config.ColorNever)
	assert.False(t, Enabled())
	assert.Equal(t, "[ERROR]", Red.Render("[ERROR]"))

	Configure(config.ColorAlways)
	assert.True(t, Enabled())
	assert.Contains(t, Red.Render("[ERROR]"), "\x1b[")
}

func TestConfigure_AutoHonorsNoColor(t *testing.T) {
	t.Cleanup(func() { Configure(config.ColorNever) })
	t.Setenv("NO_COLOR", "1")
	Configure(config.ColorAuto)
	assert.False(t, Enabled())
}

func TestIsTerminal_Nil(t *testing.T) {
	assert.False(t, IsTerminal(nil))
}
