// Package display renders the town dashboard into a terminal. It owns the
// alternate screen lifecycle and the frame layout; all state it draws comes
// in as one immutable Frame per render.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/tweetown/tweetown/internal/util"
)

// Terminal manages the alternate screen buffer so the show never scribbles
// over the user's scrollback. Enter and Exit are idempotent.
type Terminal struct {
	out       io.Writer
	altActive bool
}

// NewTerminal writes to out, or stdout when out is nil.
func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{out: out}
}

// Enter switches to the alternate screen buffer and hides the cursor.
func (t *Terminal) Enter() {
	if t.altActive {
		return
	}
	fmt.Fprint(t.out, util.EnterAltScreen)
	fmt.Fprint(t.out, util.ClearScreen)
	fmt.Fprint(t.out, util.ClearScrollback)
	fmt.Fprint(t.out, util.MoveCursorHome)
	fmt.Fprint(t.out, util.HideCursor)
	t.altActive = true
}

// Exit restores the normal screen buffer and the cursor.
func (t *Terminal) Exit() {
	if !t.altActive {
		return
	}
	fmt.Fprint(t.out, util.ClearScreen)
	fmt.Fprint(t.out, util.MoveCursorHome)
	fmt.Fprint(t.out, util.ShowCursor)
	fmt.Fprint(t.out, util.ExitAltScreen)
	t.altActive = false
}

// Clear wipes the alternate screen between frames that must not blend,
// such as help to dashboard transitions.
func (t *Terminal) Clear() {
	if t.altActive {
		fmt.Fprint(t.out, util.ClearScreen)
		fmt.Fprint(t.out, util.MoveCursorHome)
	}
}
