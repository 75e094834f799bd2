package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/data/source"
	"github.com/tweetown/tweetown/internal/web"
)

var (
	serveAddr   string
	serveFile   string
	serveDemo   bool
	serveTweets int
	serveSeed   int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the town to browsers over websockets",
	Long: `serve loads an event log and exposes it over HTTP for browser
front ends: GET /ws streams state frames and accepts playback controls
(play, pause, resume, stop, replay, speed, seek), GET /api/snapshot
returns the current town as JSON, and GET /healthz answers liveness
probes. Playback starts when a viewer sends a play control.

Examples:
  tweetown serve --file run.jsonl
  tweetown serve --file run.jsonl --addr :9000
  tweetown serve --demo --tweets 20`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", web.DefaultAddr,
		"Listen address")
	serveCmd.Flags().StringVarP(&serveFile, "file", "f", "",
		"Event log path or http(s) URL")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false,
		"Serve a synthetic run instead of a file")
	serveCmd.Flags().IntVar(&serveTweets, "tweets", source.DefaultDemoTweets,
		"Tweets in the synthetic run (with --demo)")
	serveCmd.Flags().Int64Var(&serveSeed, "seed", 0,
		"Seed for the synthetic run, 0 picks one (with --demo)")
}

func runServe(cmd *cobra.Command, args []string) error {
	initLogging()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var events []event.Event
	if serveDemo {
		events = source.Generate(source.Options{Tweets: serveTweets, Seed: serveSeed})
	} else {
		if serveFile == "" {
			return errors.New("either --file or --demo is required")
		}
		events, err = source.Load(ctx, resolveTarget(serveFile))
		if err != nil {
			return err
		}
	}

	srv, err := web.New(web.Config{
		Addr:     serveAddr,
		Events:   events,
		Settings: settings,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
