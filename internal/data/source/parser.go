// Package source acquires pipeline event logs: parsing JSONL text, loading
// it from disk or over HTTP, tailing a file that is still being written,
// and synthesizing demo runs.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

const (
	initialScanBuffer = 64 * 1024
	maxScanBuffer     = 10 * 1024 * 1024
)

// Parse reads newline-delimited events from r. Malformed lines are skipped
// with a warning so one corrupt line degrades the log instead of aborting
// it; the returned error covers read failures only. Blank lines are
// ignored. Event order is the line order, untouched.
func Parse(r io.Reader) ([]event.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialScanBuffer), maxScanBuffer)

	var events []event.Event
	lineNo := 0
	skipped := 0
	for scanner.Scan() {
		lineNo++
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		// Text() copies the line out of the scanner buffer, which is
		// reused across iterations. Decoded events must not alias it.
		line := strings.TrimSpace(scanner.Text())

		var ev event.Event
		if err := sonic.UnmarshalString(line, &ev); err != nil {
			util.LogWarnf("skipping malformed event at line %d: %v", lineNo, err)
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}

	if skipped > 0 {
		util.LogWarnf("skipped %d of %d lines while parsing event log", skipped, lineNo)
	}
	return events, nil
}

// ParseBytes parses an in-memory JSONL document.
func ParseBytes(data []byte) ([]event.Event, error) {
	return Parse(bytes.NewReader(data))
}
