package commands

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweetown/tweetown/internal/data/source"
)

// resetFlags restores the package-level flag state a test mutated.
func resetFlags(t *testing.T) {
	t.Helper()
	prevConfig, prevFile, prevDemo, prevFollow := configPath, playFile, playDemo, playFollow
	prevSpeed, prevGap := playSpeed, maxGapMS
	prevOut, prevTweets, prevSeed, prevPlay := genOut, genTweets, genSeed, genPlay
	t.Cleanup(func() {
		configPath, playFile, playDemo, playFollow = prevConfig, prevFile, prevDemo, prevFollow
		playSpeed, maxGapMS = prevSpeed, prevGap
		genOut, genTweets, genSeed, genPlay = prevOut, prevTweets, prevSeed, prevPlay
	})
}

func TestLoadSettingsFlagsWinOverFile(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speed: 2\nmax_event_gap_ms: 5000\naccent: green\n"), 0644))
	configPath = path

	// A fresh command mirrors the root flag set without executing it.
	cmd := rootCmd
	require.NoError(t, cmd.Flags().Set("speed", "4"))
	t.Cleanup(func() {
		cmd.Flags().Lookup("speed").Changed = false
	})

	settings, err := loadSettings(cmd)
	require.NoError(t, err)

	assert.Equal(t, 4.0, settings.Speed, "flag beats file")
	assert.Equal(t, int64(5000), settings.MaxEventGapMS, "file beats default")
	assert.Equal(t, "green", settings.Accent)
}

func TestLoadSettingsRejectsBadFile(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speed: -1\n"), 0644))
	configPath = path

	_, err := loadSettings(rootCmd)
	require.Error(t, err)
}

func TestRunPlayRejectsConflictingModes(t *testing.T) {
	resetFlags(t)

	playDemo = true
	playFollow = true
	err := runPlay(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestRunPlayRequiresASource(t *testing.T) {
	resetFlags(t)

	playDemo = false
	playFile = ""
	err := runPlay(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--file or --demo")
}

func TestRunPlayRejectsFollowingURLs(t *testing.T) {
	resetFlags(t)

	playFile = "https://ci.example.com/run.jsonl"
	playFollow = true
	err := runPlay(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local file")
}

func TestRunDemoWritesALog(t *testing.T) {
	resetFlags(t)

	genOut = filepath.Join(t.TempDir(), "run.jsonl")
	genTweets = 3
	genSeed = 9
	genPlay = false
	demoCmd.SetOut(io.Discard)

	require.NoError(t, runDemo(demoCmd, nil))

	events, err := source.LoadFile(genOut)
	require.NoError(t, err)
	assert.Equal(t, source.Generate(source.Options{Tweets: 3, Seed: 9}), events)
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("http://host/log.jsonl"))
	assert.True(t, isURL("https://host/log.jsonl"))
	assert.False(t, isURL("run.jsonl"))
	assert.False(t, isURL("/var/log/run.jsonl"))
}

func TestResolveTargetLeavesURLsAlone(t *testing.T) {
	assert.Equal(t, "https://host/run.jsonl", resolveTarget("https://host/run.jsonl"))
	assert.Equal(t, "", resolveTarget(""))

	resolved := resolveTarget("run.jsonl")
	assert.True(t, filepath.IsAbs(resolved))
}
