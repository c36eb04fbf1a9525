package remote_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/remote"
)

type stubGateway struct {
	cfg remote.Config
}

func (s *stubGateway) Name() string { return "stub" }

func (s *stubGateway) Upload(ctx context.Context, bucket, key string, content []byte) error {
	return nil
}

func TestRegistry(t *testing.T) {
	remote.Register("stub", func(ctx context.Context, cfg remote.Config) (remote.Gateway, error) {
		return &stubGateway{cfg: cfg}, nil
	})
	remote.Register("broken", func(ctx context.Context, cfg remote.Config) (remote.Gateway, error) {
		return nil, errors.New("no credentials")
	})

	t.Run("known_gateway", func(t *testing.T) {
		gw, err := remote.New(context.Background(), "stub", remote.Config{Bucket: "b", Region: "ca-central-1"})
		require.NoError(t, err)
		assert.Equal(t, "stub", gw.Name())
		assert.Equal(t, "b", gw.(*stubGateway).cfg.Bucket)
	})

	t.Run("unknown_gateway_lists_options", func(t *testing.T) {
		_, err := remote.New(context.Background(), "ftp", remote.Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway ftp not found")
		assert.Contains(t, err.Error(), "stub")
	})

	t.Run("factory_error_wrapped", func(t *testing.T) {
		_, err := remote.New(context.Background(), "broken", remote.Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "creating broken gateway: no credentials")
	})

	assert.Contains(t, remote.Names(), "stub")
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, remote.IsTimeout(errors.Errorf("putting object: %w", remote.ErrTimeout)))
	assert.False(t, remote.IsTimeout(errors.New("access denied")))
	assert.False(t, remote.IsTimeout(nil))
}
