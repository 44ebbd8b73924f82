//go:build integration

package flag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"quill/internal/flag"
	"quill/pkg/testutil/containers"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redis := containers.NewRedisContainer(t)
	store := flag.NewRedis(redis.Client)

	t.Run("unset flag is ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "never_set")
		require.ErrorIs(t, err, flag.ErrNotFound)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, flag.RegistrationEnabled, true))
		value, err := store.Get(ctx, flag.RegistrationEnabled)
		require.NoError(t, err)
		require.True(t, value)

		require.NoError(t, store.Set(ctx, flag.RegistrationEnabled, false))
		value, err = store.Get(ctx, flag.RegistrationEnabled)
		require.NoError(t, err)
		require.False(t, value)
	})
}
