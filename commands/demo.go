package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tweetown/tweetown/internal/application/theater"
	"github.com/tweetown/tweetown/internal/data/source"
)

var (
	genOut    string
	genTweets int
	genSeed   int64
	genPlay   bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Generate a synthetic pipeline run",
	Long: `demo writes a synthetic event log shaped like a real pipeline run:
one fetch batch, a review verdict per tweet, a bus trip, and a
classification per passed tweet, with plausible pacing.

A fixed --seed reproduces the same log; seed 0 samples the clock.

Examples:
  tweetown demo                             # Print a synthetic log to stdout
  tweetown demo --out run.jsonl             # Write it to a file
  tweetown demo --tweets 20 --seed 7        # Bigger, reproducible run
  tweetown demo --out run.jsonl --play      # Write it, then replay it`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVarP(&genOut, "out", "o", "",
		"Output path; empty or - prints to stdout")
	demoCmd.Flags().IntVar(&genTweets, "tweets", source.DefaultDemoTweets,
		"Tweets in the synthetic run")
	demoCmd.Flags().Int64Var(&genSeed, "seed", 0,
		"Seed for the generator, 0 picks one")
	demoCmd.Flags().BoolVar(&genPlay, "play", false,
		"Replay the generated log right away (needs --out)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	initLogging()

	events := source.Generate(source.Options{Tweets: genTweets, Seed: genSeed})

	if genOut == "" || genOut == "-" {
		return source.Encode(os.Stdout, events)
	}

	path := expandPath(genOut)
	if err := source.WriteFile(path, events); err != nil {
		return err
	}
	cmd.Printf("wrote %d events to %s\n", len(events), path)

	if !genPlay {
		return nil
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	director := theater.New(theater.Config{Source: path, Settings: settings})
	ctx, cancel := signalContext()
	defer cancel()
	return director.Run(ctx)
}
