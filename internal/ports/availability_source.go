package ports

import (
	"context"

	"github.com/bnema/slotwatch/internal/domain"
)

type AvailabilitySource interface {
	Fetch(ctx context.Context) (domain.Payload, error)
}
