package toml

import (
	"context"
	"fmt"

	"github.com/bnema/slotwatch/internal/adapters/state/statefile"
	"github.com/bnema/slotwatch/internal/domain"
	"github.com/bnema/slotwatch/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

type Store struct {
	file *statefile.File
}

var _ ports.StateStore = (*Store)(nil)

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

	var schema stateSchema
	if err := toml.Unmarshal(data, &schema); err != nil {
		return domain.FreshState(), fmt.Errorf("%w: decode %s: %v", domain.ErrStateCorrupt, s.file.Path(), err)
	}
	if err := schema.validateVersion(); err != nil {
		return domain.FreshState(), err
	}
	schema.applyDefaults()

	return fromSchema(schema)
}

func (s *Store) Save(ctx context.Context, state domain.State) error {
	data, err := toml.Marshal(toSchema(state))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return s.file.Write(ctx, data)
}
