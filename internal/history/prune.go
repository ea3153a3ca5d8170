package history

import (
	"fmt"
)

// PruneResult contains information about what was pruned.
type PruneResult struct {
	Deleted []Entry `json:"deleted" yaml:"deleted"`
	Kept    int     `json:"kept" yaml:"kept"`
}

// Prune removes old entries, keeping only the most recent keep entries.
func (j *Journal) Prune(keep int) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must be non-negative")
	}

	entries, err := j.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{Deleted: []Entry{}}

	if len(entries) <= keep {
		result.Kept = len(entries)
		return result, nil
	}

	// Entries are already sorted newest first
	result.Kept = keep
	for _, e := range entries[keep:] {
		if err := j.Delete(e.ID); err != nil {
			return nil, fmt.Errorf("failed to delete history entry %s: %w", e.ID, err)
		}
		result.Deleted = append(result.Deleted, e)
	}

	return result, nil
}
