package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/fsnotify/fsnotify"

	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

// Follow tails a JSONL event file and invokes apply for every complete
// line, starting with the lines already present. It blocks until ctx is
// canceled, apply returns an error, or the watcher breaks. The file may
// not exist yet; it is picked up on creation. A partial trailing line
// stays unread until its newline arrives, and a file that shrinks is
// treated as truncated and read again from the start.
//
// The directory is watched rather than the file so rotations and
// recreations keep working.
func Follow(ctx context.Context, path string, apply func(context.Context, event.Event) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	util.LogInfof("following %s", target)

	var offset int64
	if offset, err = drainFrom(ctx, target, 0, apply); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case we, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(we.Name) != target {
				continue
			}
			if we.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if offset, err = drainFrom(ctx, target, offset, apply); err != nil {
				return err
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.LogErrorf("watch error on %s: %v", dir, werr)
		}
	}
}

// drainFrom delivers every complete line at or past offset and returns the
// new offset. Bytes after the last newline are left for the next call.
func drainFrom(ctx context.Context, path string, offset int64, apply func(context.Context, event.Event) error) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return offset, nil
		}
		return offset, fmt.Errorf("open followed log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return offset, err
	}
	if info.Size() < offset {
		util.LogWarnf("%s shrank, rereading from the start", path)
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, err
	}

	reader := bufio.NewReader(f)
	consumed := offset
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, err
		}
		consumed += int64(len(line))

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		var ev event.Event
		if err := sonic.Unmarshal(trimmed, &ev); err != nil {
			util.LogWarnf("skipping malformed event in %s: %v", path, err)
			continue
		}
		if err := apply(ctx, ev); err != nil {
			return consumed, err
		}
	}
}
