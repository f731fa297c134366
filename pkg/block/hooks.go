package block

import (
	"context"
	"time"
)

// Phase identifies the lifecycle step an Event reports.
type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseActivate Phase = "activate"
	PhaseCleanup  Phase = "cleanup"
)

// Event describes one lifecycle step of a block instance.
type Event struct {
	Timestamp time.Time
	Err       error
	Phase     Phase
	Block     string
	ContextID string
	Duration  time.Duration
}

// Hooks are optional callbacks invoked after each lifecycle step.
type Hooks struct {
	OnWarmup   func(context.Context, *Event)
	OnActivate func(context.Context, *Event)
	OnCleanup  func(context.Context, *Event)
}

// JoinHooks returns hooks that call every given set in order.
func JoinHooks(all ...Hooks) Hooks {
	join := func(pick func(Hooks) func(context.Context, *Event)) func(context.Context, *Event) {
		var fns []func(context.Context, *Event)
		for _, h := range all {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e *Event) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}

	return Hooks{
		OnWarmup:   join(func(h Hooks) func(context.Context, *Event) { return h.OnWarmup }),
		OnActivate: join(func(h Hooks) func(context.Context, *Event) { return h.OnActivate }),
		OnCleanup:  join(func(h Hooks) func(context.Context, *Event) { return h.OnCleanup }),
	}
}

func (h Hooks) fire(ctx context.Context, e *Event) {
	var fn func(context.Context, *Event)
	switch e.Phase {
	case PhaseWarmup:
		fn = h.OnWarmup
	case PhaseActivate:
		fn = h.OnActivate
	case PhaseCleanup:
		fn = h.OnCleanup
	}
	if fn != nil {
		fn(ctx, e)
	}
}
