package client

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	sdkclient "go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	temporallog "go.temporal.io/sdk/log"
)

// Settings names the Temporal frontend to dial.
type Settings struct {
	Address   string
	Namespace string
	Logger    *slog.Logger
	Tracer    trace.Tracer
}

// Options builds client options with tracing and structured logging wired in.
func Options(s Settings) (sdkclient.Options, error) {
	if s.Address == "" {
		s.Address = sdkclient.DefaultHostPort
	}
	if s.Namespace == "" {
		s.Namespace = sdkclient.DefaultNamespace
	}
	if s.Logger == nil {
		s.Logger = slog.New(slog.DiscardHandler)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{Tracer: s.Tracer})
	if err != nil {
		return sdkclient.Options{}, fmt.Errorf("temporal tracing interceptor: %w", err)
	}
	options := sdkclient.Options{
		HostPort:  s.Address,
		Namespace: s.Namespace,
		Logger:    temporallog.NewStructuredLogger(s.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return options, nil
}

// Dial connects to Temporal.
func Dial(s Settings) (sdkclient.Client, error) {
	options, err := Options(s)
	if err != nil {
		return nil, err
	}
	c, err := sdkclient.Dial(options)
	if err != nil {
		return nil, fmt.Errorf("dial temporal at %s: %w", options.HostPort, err)
	}
	return c, nil
}
