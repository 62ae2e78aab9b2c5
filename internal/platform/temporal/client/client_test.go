package client

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestOptionsApplyDefaults(t *testing.T) {
	options, err := Options(Settings{})

	require.NoError(t, err)
	require.Equal(t, "localhost:7233", options.HostPort)
	require.Equal(t, "default", options.Namespace)
	require.NotNil(t, options.Logger)
	require.Len(t, options.Interceptors, 1)
}

func TestOptionsKeepExplicitSettings(t *testing.T) {
	options, err := Options(Settings{
		Address:   "temporal.internal:7233",
		Namespace: "orders",
		Tracer:    noop.NewTracerProvider().Tracer("test"),
	})

	require.NoError(t, err)
	require.Equal(t, "temporal.internal:7233", options.HostPort)
	require.Equal(t, "orders", options.Namespace)
}
