// Package json stores the run state in the JSON layout used by earlier
// deployments, so an existing state.json keeps working.
package json

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"fmt"

	"github.com/bnema/slotwatch/internal/adapters/state/statefile"
	"github.com/bnema/slotwatch/internal/domain"
	"github.com/bnema/slotwatch/internal/ports"
)

type Store struct {
	file *statefile.File
}

var _ ports.StateStore = (*Store)(nil)

// document is the on-disk layout. Absent values are written as null.
type document struct {
	LastSeenEarliestDate *string `json:"last_seen_earliestDate"`
	LastStatus           *string `json:"last_status"`
}

func NewStore(path string) (*Store, error) {
	file, err := statefile.New(path)
	if err != nil {
		return nil, err
	}

	return &Store{file: file}, nil
}

func (s *Store) Path() string {
	return s.file.Path()
}

func (s *Store) Load(ctx context.Context) (domain.State, error) {
	data, err := s.file.Read(ctx)
	if err != nil {
		return domain.FreshState(), err
	}

	var doc document
	decoder := stdjson.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		return domain.FreshState(), fmt.Errorf("%w: decode %s: %v", domain.ErrStateCorrupt, s.file.Path(), err)
	}

	return fromDocument(doc)
}

func (s *Store) Save(ctx context.Context, state domain.State) error {
	data, err := stdjson.MarshalIndent(toDocument(state), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	return s.file.Write(ctx, data)
}

func toDocument(state domain.State) document {
	var doc document
	if state.LastSeenEarliestDate != "" {
		date := state.LastSeenEarliestDate
		doc.LastSeenEarliestDate = &date
	}
	if state.LastStatus != domain.StatusUnknown {
		status := string(state.LastStatus)
		doc.LastStatus = &status
	}

	return doc
}

func fromDocument(doc document) (domain.State, error) {
	state := domain.FreshState()
	if doc.LastStatus != nil {
		status, err := domain.ParseStatus(*doc.LastStatus)
		if err != nil {
			return domain.FreshState(), err
		}
		state.LastStatus = status
	}
	if doc.LastSeenEarliestDate != nil {
		state.LastSeenEarliestDate = *doc.LastSeenEarliestDate
	}

	return state, nil
}
