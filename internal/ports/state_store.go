package ports

import (
	"context"

	"github.com/bnema/slotwatch/internal/domain"
)

// StateStore persists the single cross-run State record. Load returns
// domain.ErrStateNotFound when nothing has been saved yet.
type StateStore interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}
