package log

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_ReturnsDefault_WhenEmptyContext(t *testing.T) {
	t.Parallel()

	got := From(context.Background())
	require.Same(t, slog.Default(), got)
}

func TestIntoFrom_RoundTrip(t *testing.T) {
	t.Parallel()

	l := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := Into(context.Background(), l)

	require.Same(t, l, From(ctx))
}

func TestFrom_IgnoresNilLogger(t *testing.T) {
	t.Parallel()

	ctx := Into(context.Background(), nil)
	require.Same(t, slog.Default(), From(ctx))
}
