package notify

import "context"

// Notifier delivers fire-and-forget notifications. Implementations log
// delivery failures and never return them to trading paths.
type Notifier interface {
	NotifyTrade(ctx context.Context, text string)
	NotifyLifecycle(ctx context.Context, text string)
}

// Noop is a Notifier that drops everything.
type Noop struct{}

func (Noop) NotifyTrade(context.Context, string)     {}
func (Noop) NotifyLifecycle(context.Context, string) {}

var _ Notifier = Noop{}
