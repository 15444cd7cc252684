package interfaces

import (
	"context"
	"sync"
)

// Transactor runs fn atomically. Repository calls made with the ctx passed to
// fn take part in the transaction. fn may be retried and must be idempotent.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type commitHooksKey struct{}

// CommitHooks collects callbacks registered with AfterCommit during one
// transaction attempt.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithCommitHooks attaches a fresh hook list to ctx. Transactor
// implementations call it once per attempt and Run the hooks of the attempt
// that committed.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	hooks := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, hooks), hooks
}

// Run calls the registered callbacks in registration order.
func (h *CommitHooks) Run(ctx context.Context) {
	if h == nil {
		return
	}

	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

// AfterCommit runs fn once the transaction carried by ctx commits. Outside a
// transaction fn runs immediately. Callbacks of aborted transactions are
// dropped.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	hooks, ok := ctx.Value(commitHooksKey{}).(*CommitHooks)
	if !ok {
		fn(ctx)
		return
	}

	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}
