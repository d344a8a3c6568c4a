package ports

import "context"

type Notifier interface {
	Notify(ctx context.Context, details map[string]any) error
}
