// Package history keeps a journal of applied self-updates.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// idLayout names journal entries; the fractional part keeps two updates in
// the same second apart.
const idLayout = "2006-01-02-150405.000000"

// Entry is one applied update.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	AppliedAt time.Time `json:"applied_at" yaml:"applied_at"`
	Tag       string    `json:"tag,omitempty" yaml:"tag,omitempty"`
	Target    string    `json:"target" yaml:"target"`
}

// Journal stores entries as JSON files in one directory.
type Journal struct {
	dir string
	now func() time.Time
}

// NewJournal creates a journal kept in dir.
func NewJournal(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

// Dir returns the journal directory path.
func (j *Journal) Dir() string {
	return j.dir
}

// Record appends an entry for an update of target to tag.
func (j *Journal) Record(tag, target string) error {
	_, err := j.Add(tag, target)
	return err
}

// Add appends an entry and returns it.
func (j *Journal) Add(tag, target string) (*Entry, error) {
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	now := j.now().UTC()
	entry := &Entry{
		ID:        now.Format(idLayout),
		AppliedAt: now,
		Tag:       tag,
		Target:    target,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if err := os.WriteFile(j.path(entry.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}

	return entry, nil
}

// List returns all entries, newest first. Unreadable files are skipped.
func (j *Journal) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	entries := []Entry{}
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}

		entry, err := j.load(filepath.Join(j.dir, de.Name()))
		if err != nil {
			continue
		}
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].AppliedAt.After(entries[b].AppliedAt)
	})

	return entries, nil
}

// Latest returns the most recent entry.
func (j *Journal) Latest() (*Entry, error) {
	entries, err := j.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no updates recorded")
	}
	return &entries[0], nil
}

// Delete removes an entry by ID.
func (j *Journal) Delete(id string) error {
	if strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid history id: %s", id)
	}

	path := j.path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("history entry not found: %s", id)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	return nil
}

func (j *Journal) path(id string) string {
	return filepath.Join(j.dir, id+".json")
}

func (j *Journal) load(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse history entry: %w", err)
	}

	return &entry, nil
}
