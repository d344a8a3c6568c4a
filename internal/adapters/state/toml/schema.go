package toml

import (
	"fmt"

	"github.com/bnema/slotwatch/internal/domain"
)

const currentSchemaVersion = 1

type stateSchema struct {
	Version              int    `toml:"version"`
	LastSeenEarliestDate string `toml:"last_seen_earliest_date,omitempty"`
	LastStatus           string `toml:"last_status,omitempty"`
}

func (s *stateSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s stateSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("%w: unsupported state schema version %d (current %d)", domain.ErrStateCorrupt, s.Version, currentSchemaVersion)
	}

	return nil
}

func toSchema(state domain.State) stateSchema {
	return stateSchema{
		Version:              currentSchemaVersion,
		LastSeenEarliestDate: state.LastSeenEarliestDate,
		LastStatus:           string(state.LastStatus),
	}
}

func fromSchema(schema stateSchema) (domain.State, error) {
	status, err := domain.ParseStatus(schema.LastStatus)
	if err != nil {
		return domain.FreshState(), err
	}

	return domain.State{
		LastSeenEarliestDate: schema.LastSeenEarliestDate,
		LastStatus:           status,
	}, nil
}
