package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tweetown/tweetown/internal/util"
)

func TestTerminalEnterExitLifecycle(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Enter()
	out := buf.String()
	assert.Contains(t, out, util.EnterAltScreen)
	assert.Contains(t, out, util.HideCursor)

	// A second Enter while active must not stack another screen switch.
	term.Enter()
	assert.Equal(t, 1, strings.Count(buf.String(), util.EnterAltScreen))

	term.Exit()
	out = buf.String()
	assert.Contains(t, out, util.ShowCursor)
	assert.Contains(t, out, util.ExitAltScreen)

	term.Exit()
	assert.Equal(t, 1, strings.Count(buf.String(), util.ExitAltScreen))
}

func TestTerminalExitWithoutEnter(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	term.Exit()
	assert.Empty(t, buf.String())
}

func TestTerminalClear(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	// Clear only acts inside the alternate screen.
	term.Clear()
	assert.Empty(t, buf.String())

	term.Enter()
	buf.Reset()
	term.Clear()
	assert.Contains(t, buf.String(), util.ClearScreen)
	assert.Contains(t, buf.String(), util.MoveCursorHome)
}
