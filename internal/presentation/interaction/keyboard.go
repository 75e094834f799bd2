// Package interaction reads hotkeys for the dashboard while the terminal
// sits in raw mode. Playback keys stay responsive without waiting for a
// newline, and the previous terminal state is restored on Close.
package interaction

import (
	"os"

	"golang.org/x/sys/unix"
)

// KeyType distinguishes printable keys from escape-driven ones.
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
)

// KeyEvent is one decoded key press.
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyboardReader owns stdin while the show runs. It flips the terminal to
// raw mode on construction and feeds decoded presses to Events.
type KeyboardReader struct {
	oldState *unix.Termios
	input    chan KeyEvent
	stop     chan struct{}
}

// NewKeyboardReader switches the terminal to raw mode and starts the read
// loop. Callers must Close it to give the terminal back.
func NewKeyboardReader() (*KeyboardReader, error) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}

	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}

	go kr.readInput()
	return kr, nil
}

func (kr *KeyboardReader) readInput() {
	// Three bytes is enough to spot an escape sequence introducer; longer
	// sequences arrive in chunks and are dropped below anyway.
	buf := make([]byte, 3)

	for {
		select {
		case <-kr.stop:
			return
		default:
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				continue
			}

			event := kr.parseInput(buf[:n])
			if event == nil {
				continue
			}
			select {
			case kr.input <- *event:
			case <-kr.stop:
				return
			}
		}
	}
}

// parseInput decodes one read. A bare ESC maps to KeyEscape, multi-byte
// escape sequences (arrows, function keys) are swallowed, and everything
// else passes through as a character key. Raw mode keeps ISIG on, so
// Ctrl+C usually raises SIGINT; the byte is still decoded for terminals
// that deliver it raw.
func (kr *KeyboardReader) parseInput(buf []byte) *KeyEvent {
	if len(buf) == 0 {
		return nil
	}

	if buf[0] == 3 {
		return &KeyEvent{Key: 3, Type: KeyChar}
	}

	if buf[0] == 27 {
		if len(buf) == 1 {
			return &KeyEvent{Key: 27, Type: KeyEscape}
		}
		return nil
	}

	return &KeyEvent{Key: rune(buf[0]), Type: KeyChar}
}

// Events returns the decoded key press channel.
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops the read loop and restores the saved terminal state.
func (kr *KeyboardReader) Close() error {
	close(kr.stop)
	return kr.disableRawMode()
}
