package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRunInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("undo steps run newest first on failure", func(t *testing.T) {
		var order []string
		runner := NewInMemory()

		err := runner.RunInTx(ctx, func(txCtx context.Context) error {
			j, ok := JournalFrom(txCtx)
			require.True(t, ok)
			j.OnRollback(func() { order = append(order, "first") })
			j.OnRollback(func() { order = append(order, "second") })
			return errors.New("boom")
		})

		require.Error(t, err)
		assert.Equal(t, []string{"second", "first"}, order)
	})

	t.Run("undo steps are discarded on success", func(t *testing.T) {
		called := false
		runner := NewInMemory()

		err := runner.RunInTx(ctx, func(txCtx context.Context) error {
			j, _ := JournalFrom(txCtx)
			j.OnRollback(func() { called = true })
			return nil
		})

		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("no journal outside a unit of work", func(t *testing.T) {
		_, ok := JournalFrom(ctx)
		assert.False(t, ok)
		_, ok = From(ctx)
		assert.False(t, ok)
	})

	t.Run("WithTx ignores nil", func(t *testing.T) {
		assert.Equal(t, ctx, WithTx(ctx, nil))
	})
}
