// Package journal keeps an append-only record of the state-changing steps
// shotty takes, one JSON object per line, so an interrupted batch can be
// reconstructed afterwards.
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/yairfalse/shotty/pkg/resource"
)

const filePrefix = "shotty"

// Entry is a single journal line.
type Entry struct {
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Sequence  int64          `json:"sequence" yaml:"sequence"`
	Event     resource.Event `json:"event" yaml:"event"`
}

// Journal appends entries to a per-process file.
type Journal struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	sequence int64
	path     string
	now      func() time.Time
}

// Open creates a new journal file in dir.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s-%d.jsonl", filePrefix, time.Now().UTC().Format("20060102-150405"), os.Getpid())
	path := filepath.Join(dir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}

	return &Journal{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
		now:    time.Now,
	}, nil
}

// Path returns the file the journal writes to.
func (j *Journal) Path() string {
	return j.path
}

// Emit appends the event. It makes Journal usable as an emitter.
func (j *Journal) Emit(_ context.Context, event resource.Event) error {
	return j.Append(event)
}

// Append writes one entry and syncs it to disk before returning.
func (j *Journal) Append(event resource.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.sequence++
	entry := Entry{
		Timestamp: j.now().UTC(),
		Sequence:  j.sequence,
		Event:     event,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if _, err := j.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return j.file.Sync()
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

// Reader reads entries back from one journal file.
type Reader struct {
	scanner *bufio.Scanner
	file    *os.File
}

// NewReader opens a journal file for reading.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	return &Reader{scanner: bufio.NewScanner(file), file: file}, nil
}

// Next returns the next entry or io.EOF.
func (r *Reader) Next() (*Entry, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	var entry Entry
	if err := json.Unmarshal(r.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &entry, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Files lists journal files in dir, oldest first.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"-*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("list journal files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Replay calls handler for every entry newer than since, file by file.
func Replay(dir string, since time.Time, handler func(*Entry) error) error {
	files, err := Files(dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := replayFile(file, since, handler); err != nil {
			return err
		}
	}
	return nil
}

func replayFile(path string, since time.Time, handler func(*Entry) error) error {
	reader, err := NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		entry, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if entry.Timestamp.After(since) {
			if err := handler(entry); err != nil {
				return err
			}
		}
	}
}

// Fields returns the report columns for the entry.
func (e Entry) Fields() []string {
	detail := e.Event.Error
	if detail == "" {
		detail = e.Event.Reason
	}
	return []string{
		e.Timestamp.Format(time.RFC3339),
		e.Event.Action,
		e.Event.ResourceID,
		string(e.Event.Outcome),
		detail,
	}
}
