package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	kr := &KeyboardReader{}

	tests := []struct {
		name string
		buf  []byte
		want *KeyEvent
	}{
		{"empty read", nil, nil},
		{"plain letter", []byte{'q'}, &KeyEvent{Key: 'q', Type: KeyChar}},
		{"space", []byte{' '}, &KeyEvent{Key: ' ', Type: KeyChar}},
		{"plus", []byte{'+'}, &KeyEvent{Key: '+', Type: KeyChar}},
		{"ctrl c", []byte{3}, &KeyEvent{Key: 3, Type: KeyChar}},
		{"bare escape", []byte{27}, &KeyEvent{Key: 27, Type: KeyEscape}},
		{"arrow sequence dropped", []byte{27, '[', 'A'}, nil},
		{"partial escape sequence dropped", []byte{27, '['}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kr.parseInput(tt.buf)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}
