package application

import (
	"context"
	"time"

	"github.com/bnema/slotwatch/internal/domain"
)

type inMemoryStateStore struct {
	state *domain.State
}

func (s *inMemoryStateStore) Load(ctx context.Context) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return domain.State{}, err
	}
	if s.state == nil {
		return domain.State{}, domain.ErrStateNotFound
	}

	return *s.state, nil
}

func (s *inMemoryStateStore) Save(ctx context.Context, state domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = &state
	return nil
}

type recordingNotifier struct {
	sent []map[string]any
}

func (n *recordingNotifier) Notify(_ context.Context, details map[string]any) error {
	n.sent = append(n.sent, details)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}
