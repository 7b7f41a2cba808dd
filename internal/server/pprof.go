package server

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartPprofServer serves pprof on a separate address meant for internal
// access only. An empty addr disables it.
func StartPprofServer(addr string, logger *zap.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	pprofRouter := gin.New()
	pprof.Register(pprofRouter)

	srv := &http.Server{Addr: addr, Handler: pprofRouter}
	go func() {
		logger.Info("Starting pprof server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server stopped", zap.Error(err))
		}
	}()
	return srv
}
