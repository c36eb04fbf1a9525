package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/remote"
)

func TestGateway(t *testing.T) {
	ctx := context.Background()
	gw := New()

	require.NoError(t, gw.Upload(ctx, "b", "public/ACME/Q1/x.pdf", []byte("one")))

	gw.FailKey("public/ACME/Q2/y.pdf", remote.ErrTimeout)
	err := gw.Upload(ctx, "b", "public/ACME/Q2/y.pdf", []byte("two"))
	require.Error(t, err)
	assert.True(t, remote.IsTimeout(err))

	gw.FailKey("public/ACME/Q3/z.pdf", errors.New("access denied"))
	err = gw.Upload(ctx, "b", "public/ACME/Q3/z.pdf", []byte("three"))
	require.Error(t, err)
	assert.False(t, remote.IsTimeout(err))

	content, ok := gw.Object("b", "public/ACME/Q1/x.pdf")
	require.True(t, ok)
	assert.Equal(t, "one", string(content))

	assert.Equal(t, []string{"b/public/ACME/Q1/x.pdf"}, gw.Keys())
	assert.Equal(t, 3, gw.Calls())
}

func TestGatewayCopiesContent(t *testing.T) {
	gw := New()
	buf := []byte("abc")
	require.NoError(t, gw.Upload(context.Background(), "b", "k", buf))
	buf[0] = 'z'

	content, _ := gw.Object("b", "k")
	assert.Equal(t, "abc", string(content))
}

func TestGatewayExpiredContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	err := New().Upload(ctx, "b", "k", nil)
	require.Error(t, err)
	assert.True(t, remote.IsTimeout(err))
}

func TestRegistered(t *testing.T) {
	gw, err := remote.New(context.Background(), Name, remote.Config{})
	require.NoError(t, err)
	assert.Equal(t, Name, gw.Name())
}
