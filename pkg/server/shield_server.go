package server

import (
	"errors"
	"net"
	"strconv"

	"github.com/25thblame/prompt-shield/pkg/config"
	"github.com/25thblame/prompt-shield/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	ShieldServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	ShieldServer struct {
		*BaseServer
	}
)

func NewShieldServer(di ShieldServerDI) *ShieldServer {
	base := NewBaseServer(di.Config, di.Logger)
	base.WithRouters(di.Routers...)
	return &ShieldServer{BaseServer: base}
}

func (s *ShieldServer) Run() error {
	s.setupMetricsEndpoint()

	addr := net.JoinHostPort(s.Config.Server.Host, strconv.Itoa(s.Config.Server.Port))
	if s.Config.Server.TLSCertFile != "" {
		s.Logger.WithField("addr", addr).Info("starting shield server with TLS")
		return s.Router.ListenTLS(addr, s.Config.Server.TLSCertFile, s.Config.Server.TLSKeyFile)
	}
	s.Logger.WithField("addr", addr).Info("starting shield server")
	return s.Router.Listen(addr)
}

func (s *ShieldServer) Shutdown() error {
	return errors.Join(s.Router.Shutdown(), s.shutdownMetrics())
}
