package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tweetown/tweetown/internal/application/theater"
	"github.com/tweetown/tweetown/internal/config"
	"github.com/tweetown/tweetown/internal/data/source"
	"github.com/tweetown/tweetown/internal/util"
)

var (
	// Shared across commands
	configPath string
	debug      bool

	// Playback source
	playFile   string
	playDemo   bool
	playFollow bool

	// Synthetic run tuning when --demo is set
	playTweets int
	playSeed   int64

	// Playback tuning
	playSpeed float64
	maxGapMS  int64

	rootCmd = &cobra.Command{
		Use:   "tweetown [flags]",
		Short: "Replay tweet pipeline runs as an animated terminal town",
		Long: `tweetown replays the JSONL event log written by a tweet pipeline run
(fetch, review, classify) as a small animated town: every fetched tweet
queues at the review desk, survivors ride the bus downtown, and the
sorter files them into lit category buildings.

Examples:
  tweetown --file run.jsonl              # Replay a recorded run
  tweetown --file https://ci/run.jsonl   # Replay a log served over HTTP
  tweetown --file run.jsonl --speed 4    # Replay at four times the pace
  tweetown --file run.jsonl --follow     # Tail a run that is still writing
  tweetown --demo                        # Watch a synthetic run`,
		RunE: runPlay,
	}
)

const defaultLogFile = "~/.tweetown/logs/app.log"

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML settings file (flags win over file values)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")

	rootCmd.Flags().StringVarP(&playFile, "file", "f", "",
		"Event log path or http(s) URL")
	rootCmd.Flags().BoolVar(&playDemo, "demo", false,
		"Generate and replay a synthetic run")
	rootCmd.Flags().BoolVar(&playFollow, "follow", false,
		"Tail the log file and apply events as they are appended")
	rootCmd.Flags().Float64Var(&playSpeed, "speed", config.Default().Speed,
		"Playback speed multiplier")
	rootCmd.Flags().Int64Var(&maxGapMS, "max-gap", config.Default().MaxEventGapMS,
		"Longest real wait between events, in milliseconds")
	rootCmd.Flags().IntVar(&playTweets, "tweets", source.DefaultDemoTweets,
		"Tweets in the synthetic run (with --demo)")
	rootCmd.Flags().Int64Var(&playSeed, "seed", 0,
		"Seed for the synthetic run, 0 picks one (with --demo)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	initLogging()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if playDemo && playFollow {
		return errors.New("--demo and --follow are mutually exclusive")
	}
	if !playDemo && playFile == "" {
		return errors.New("either --file or --demo is required")
	}
	if playFollow && isURL(playFile) {
		return errors.New("--follow needs a local file, not a URL")
	}

	director := theater.New(theater.Config{
		Source:     resolveTarget(playFile),
		Demo:       playDemo,
		DemoTweets: playTweets,
		DemoSeed:   playSeed,
		Follow:     playFollow,
		Settings:   settings,
	})

	ctx, cancel := signalContext()
	defer cancel()
	return director.Run(ctx)
}

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}

// loadSettings layers the optional YAML file over the defaults, then the
// explicitly set flags over both.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings := config.Default()
	if configPath != "" {
		loaded, err := config.Load(expandPath(configPath))
		if err != nil {
			return settings, err
		}
		settings = loaded
	}

	if cmd.Flags().Changed("speed") {
		settings.Speed = playSpeed
	}
	if cmd.Flags().Changed("max-gap") {
		settings.MaxEventGapMS = maxGapMS
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

func initLogging() {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	ensureDir(filepath.Dir(logFile))
	util.InitLogger(logLevel, logFile, debug)
}

// signalContext cancels on the first interrupt so the terminal is restored
// before the process exits.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cancel()
	}()

	return ctx, cancel
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// resolveTarget expands ~ in local paths and leaves URLs alone.
func resolveTarget(target string) string {
	if target == "" || isURL(target) {
		return target
	}
	return expandPath(target)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
