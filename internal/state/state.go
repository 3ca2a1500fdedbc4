package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// State is persisted between runs.
type State struct {
	Token        *oauth2.Token       `json:"#oauth_token,omitempty"`
	TableColumns map[string][]string `json:"table_columns"`
}

// Store reads and writes the state file. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	path  string
	state State
}

// Open loads the state file at path. A missing file yields an empty state.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		state: State{TableColumns: map[string][]string{}},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to decode state %s: %w", path, err)
	}

	if s.state.TableColumns == nil {
		s.state.TableColumns = map[string][]string{}
	}

	return s, nil
}

func (s *Store) Token() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Token
}

// SetToken replaces the token and saves the state.
func (s *Store) SetToken(token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = token

	return s.save()
}

// Columns returns the columns written for a table by a previous run.
func (s *Store) Columns(tableName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.TableColumns[tableName]
}

func (s *Store) SetColumns(tableName string, columns []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.TableColumns[tableName] = append([]string(nil), columns...)
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save()
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state %s: %w", s.path, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state %s: %w", s.path, err)
	}

	return nil
}
