// Package cache persists the raw CCB pulls as CSV files so repeat runs can
// skip the slow report API with --use-file-cache.
package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"givingreport/internal/domain"
)

const (
	famIDsFile       = "fam_ids.csv"
	indIDsFile       = "ind_ids.csv"
	transactionsFile = "transactions.csv"
	individualsFile  = "individuals.csv"
)

// Store reads and writes the cached tables under a fixed directory.
type Store struct {
	baseDir string
}

// NewStore initializes a Store rooted at baseDir, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("cache: base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: ensure base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Run is everything one CCB pull produced: the two raw tables (header row
// included) and the id sets of families and individuals that gave.
type Run struct {
	FamilyIDs     map[int64]struct{}
	IndividualIDs map[int64]struct{}
	Transactions  [][]string
	Individuals   [][]string
}

// Save writes the run to the cache directory, replacing any previous run.
func (s *Store) Save(run *Run) error {
	if err := s.writeIDs(famIDsFile, "Family ID", run.FamilyIDs); err != nil {
		return err
	}
	if err := s.writeIDs(indIDsFile, "Individual ID", run.IndividualIDs); err != nil {
		return err
	}
	if err := s.writeTable(transactionsFile, run.Transactions); err != nil {
		return err
	}
	return s.writeTable(individualsFile, run.Individuals)
}

// Load reads a previously saved run. A missing or unreadable cache wraps
// domain.ErrCacheUnavailable so the caller can tell the user to re-pull.
func (s *Store) Load() (*Run, error) {
	famIDs, err := s.readIDs(famIDsFile)
	if err != nil {
		return nil, err
	}
	indIDs, err := s.readIDs(indIDsFile)
	if err != nil {
		return nil, err
	}
	transactions, err := s.readTable(transactionsFile)
	if err != nil {
		return nil, err
	}
	individuals, err := s.readTable(individualsFile)
	if err != nil {
		return nil, err
	}
	return &Run{
		FamilyIDs:     famIDs,
		IndividualIDs: indIDs,
		Transactions:  transactions,
		Individuals:   individuals,
	}, nil
}

func (s *Store) writeIDs(name, header string, ids map[int64]struct{}) error {
	sorted := make([]int64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	records := [][]string{{header}}
	for _, id := range sorted {
		records = append(records, []string{strconv.FormatInt(id, 10)})
	}
	return s.writeTable(name, records)
}

func (s *Store) readIDs(name string) (map[int64]struct{}, error) {
	records, err := s.readTable(name)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(records))
	for i, row := range records {
		if i == 0 || len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cache: %s row %d: %w", name, i+1, err)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *Store) writeTable(name string, records [][]string) error {
	f, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return fmt.Errorf("cache: create %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("cache: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cache: close %s: %w", name, err)
	}
	return nil
}

func (s *Store) readTable(name string) ([][]string, error) {
	f, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w: %w", name, domain.ErrCacheUnavailable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", name, err)
	}
	return records, nil
}
