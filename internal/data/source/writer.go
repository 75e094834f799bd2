package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

// Encode writes events as newline-delimited JSON, one event per line.
// Parsing the output yields the same event list back.
func Encode(w io.Writer, events []event.Event) error {
	bw := bufio.NewWriter(w)
	for i := range events {
		line, err := sonic.Marshal(events[i])
		if err != nil {
			return fmt.Errorf("encode event %d (%s): %w", i, events[i].Type, err)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes events to path as JSONL, creating parent directories.
func WriteFile(path string, events []event.Event) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create event log: %w", err)
	}
	if err := Encode(f, events); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	util.LogInfof("wrote %d events to %s", len(events), path)
	return nil
}
