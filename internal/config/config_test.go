package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweetown/tweetown/internal/util"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tweetown.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := writeConfig(t, "speed: 2.5\nleaderboard_size: 8\naccent: magenta\n")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, s.Speed)
	assert.Equal(t, 8, s.LeaderboardSize)
	assert.Equal(t, "magenta", s.Accent)

	def := Default()
	assert.Equal(t, def.MaxEventGapMS, s.MaxEventGapMS, "unset keys keep their defaults")
	assert.Equal(t, def.RefreshHz, s.RefreshHz)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"negative speed", "speed: -1\n", "speed"},
		{"zero leaderboard", "leaderboard_size: 0\n", "leaderboard_size"},
		{"absurd refresh", "refresh_hz: 500\n", "refresh_hz"},
		{"unknown accent", "accent: chartreuse\n", "accent"},
		{"broken yaml", "speed: [1,\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMaxGap(t *testing.T) {
	s := Settings{MaxEventGapMS: 1500}
	assert.Equal(t, 1500*time.Millisecond, s.MaxGap())
}

func TestAccentCode(t *testing.T) {
	s := Default()
	s.Accent = "green"
	assert.Equal(t, util.ColorGreen, s.AccentCode())

	s.Accent = "never-validated"
	assert.Equal(t, util.ColorCyan, s.AccentCode(), "unknown names fall back")
}
