package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAll(t *testing.T) {
	ctx := context.Background()
	locker := &orderLocker{}

	release, err := AcquireAll(ctx, locker, "order-line:k1:2", "lot:l-1")
	require.NoError(t, err)
	release()
	assert.Equal(t, []string{
		"+order-line:k1:2", "+lot:l-1", "-lot:l-1", "-order-line:k1:2",
	}, locker.log)

	t.Run("releases held keys on failure", func(t *testing.T) {
		locker := &orderLocker{fail: "lot:l-1"}
		_, err := AcquireAll(ctx, locker, "order-line:k1:2", "lot:l-1")
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
		assert.Equal(t, []string{"+order-line:k1:2", "-order-line:k1:2"}, locker.log)
	})
}

type orderLocker struct {
	log  []string
	fail string
}

func (l *orderLocker) Acquire(_ context.Context, key string) (func(), error) {
	if key == l.fail {
		return nil, NewConcurrencyConflictError(key)
	}
	l.log = append(l.log, "+"+key)
	return func() { l.log = append(l.log, "-"+key) }, nil
}
