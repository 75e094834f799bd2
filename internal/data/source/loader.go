package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

// Load resolves target as a URL when it carries an http scheme and as a
// local file path otherwise.
func Load(ctx context.Context, target string) ([]event.Event, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return LoadURL(ctx, target)
	}
	return LoadFile(target)
}

// LoadFile reads and parses a JSONL event log from disk. Open errors wrap
// the underlying os error, so a missing file stays distinguishable from a
// log that scanned badly.
func LoadFile(path string) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	events, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	util.LogInfof("loaded %d events from %s", len(events), path)
	return events, nil
}

// LoadURL fetches a JSONL event log over HTTP and parses it.
func LoadURL(ctx context.Context, url string) ([]event.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch event log: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch event log: %s returned %s", url, resp.Status)
	}

	events, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	util.LogInfof("loaded %d events from %s", len(events), url)
	return events, nil
}
