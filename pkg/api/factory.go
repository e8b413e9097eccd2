package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssargent/wpilogviewer/pkg/logging"
	"github.com/ssargent/wpilogviewer/pkg/wpilog"
)

// ServerStarter serves a loaded index. The serve command depends on this
// rather than on StartServer so tests can substitute a recorder.
type ServerStarter interface {
	StartServer(ctx context.Context,
		idx ChannelIndex,
		summary wpilog.Summary,
		config ServerConfig,
		reg *prometheus.Registry,
		logger logging.Logger,
	) error
}

// ServerFactory creates server starters.
type ServerFactory interface {
	CreateServerStarter() ServerStarter
}

type httpServerFactory struct{}

// NewServerFactory returns the factory whose starters run the HTTP server.
func NewServerFactory() ServerFactory {
	return httpServerFactory{}
}

func (httpServerFactory) CreateServerStarter() ServerStarter {
	return httpServerStarter{}
}

type httpServerStarter struct{}

func (httpServerStarter) StartServer(
	ctx context.Context,
	idx ChannelIndex,
	summary wpilog.Summary,
	config ServerConfig,
	reg *prometheus.Registry,
	logger logging.Logger,
) error {
	return StartServer(ctx, idx, summary, config, reg, logger)
}
