// Package file provides a destination registry backed by a plain text file
// holding one chat ID per line.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"solana-buy-alert/internal/storage"
)

// DestinationStore implements storage.DestinationStore on a line-per-ID file.
// Blank and unparseable lines are ignored. A missing file is an empty registry.
type DestinationStore struct {
	mu   sync.Mutex
	path string
}

// NewDestinationStore creates a store for the file at path.
func NewDestinationStore(path string) *DestinationStore {
	return &DestinationStore{path: path}
}

// Path returns the backing file path.
func (s *DestinationStore) Path() string {
	return s.path
}

// List returns all destination IDs in ascending order.
func (s *DestinationStore) List(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.read()
	if err != nil {
		return nil, err
	}
	return sortedIDs(set), nil
}

// Add appends a destination. Adding an existing ID is a no-op.
func (s *DestinationStore) Add(_ context.Context, id int64) error {
	if id == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := set[id]; ok {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n", id); err != nil {
		return fmt.Errorf("append %s: %w", s.path, err)
	}
	return nil
}

// Remove rewrites the file without id. Returns ErrNotFound if not registered.
func (s *DestinationStore) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := set[id]; !ok {
		return storage.ErrNotFound
	}
	delete(set, id)

	var b strings.Builder
	for _, v := range sortedIDs(set) {
		b.WriteString(strconv.FormatInt(v, 10))
		b.WriteByte('\n')
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *DestinationStore) read() (map[int64]struct{}, error) {
	set := make(map[int64]struct{})

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		set[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return set, nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
