package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryStub struct {
	closed *[]string
}

func (r registryStub) Close() {
	*r.closed = append(*r.closed, "workspaces")
}

func TestShutdownRunsHooksInOrderAndContinuesOnError(t *testing.T) {
	var order []string
	record := func(name string, err error) Hook {
		return Hook{Name: name, Close: func(context.Context) error {
			order = append(order, name)
			return err
		}}
	}
	errRedis := errors.New("redis: client is closed")

	err := shutdown(context.Background(), []Hook{
		Closing("workspaces", registryStub{closed: &order}),
		record("message queue", nil),
		record("redis", errRedis),
		record("database", nil),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errRedis)
	assert.Contains(t, err.Error(), "close redis")
	assert.Equal(t, []string{"workspaces", "message queue", "redis", "database"}, order)
}

func TestShutdownWithoutErrors(t *testing.T) {
	calls := 0
	hook := Hook{Name: "noop", Close: func(context.Context) error {
		calls++
		return nil
	}}
	assert.NoError(t, shutdown(context.Background(), []Hook{hook, hook}))
	assert.Equal(t, 2, calls)
}
