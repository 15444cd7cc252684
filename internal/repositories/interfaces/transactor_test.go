package interfaces

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAfterCommit(t *testing.T) {
	var calls []string

	AfterCommit(context.Background(), func(ctx context.Context) { calls = append(calls, "direct") })
	assert.Equal(t, []string{"direct"}, calls)

	txCtx, hooks := WithCommitHooks(context.Background())
	AfterCommit(txCtx, func(ctx context.Context) { calls = append(calls, "first") })
	AfterCommit(txCtx, func(ctx context.Context) { calls = append(calls, "second") })
	assert.Equal(t, []string{"direct"}, calls)

	hooks.Run(context.Background())
	assert.Equal(t, []string{"direct", "first", "second"}, calls)

	hooks.Run(context.Background())
	assert.Len(t, calls, 3, "hooks run once")
}
