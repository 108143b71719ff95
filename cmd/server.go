package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tsingjyujing/langid/controller"
	"github.com/tsingjyujing/langid/utils"
)

// newEchoServer registers the routes of c. Bearer authentication guards the
// API group when tokens are given.
func newEchoServer(c *controller.Controller, tokens []string) *echo.Echo {
	echoServer := echo.New()
	echoServer.HideBanner = true

	echoServer.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	echoServer.Use(echoprometheus.NewMiddleware("langid"))
	// Set routes
	echoServer.GET("/metrics", echoprometheus.NewHandler())
	echoServer.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	echoServer.Use(middleware.CORS()) // Enable CORS for all origins

	// RESTful API routes
	apiGroup := echoServer.Group("/api/v1")
	apiGroup.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(map[string]any{
				"request_id": v.RequestID,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
			}).Info("request")
			return nil
		},
	}))

	if len(tokens) > 0 {
		logger.Infof("Bearer token authentication enabled with %d token(s)", len(tokens))
		apiGroup.Use(utils.CreateBearerTokenMiddleware(tokens))
	} else {
		logger.Warn("Bearer token authentication disabled - no tokens configured")
	}

	apiGroup.POST("/language", c.IdentifyLanguage)
	apiGroup.GET("/language/stats", c.PoolStats)
	apiGroup.POST("/encoding", c.GuessEncoding)
	apiGroup.GET("/languages", c.ListLanguages)
	return echoServer
}

func NewServerCommand() *cobra.Command {
	var configFile string

	serverCommand := &cobra.Command{
		Use:   "server",
		Short: "Starting server",
		Run: func(cmd *cobra.Command, args []string) {
			_, cfg := readConfig(configFile)

			a, err := newApp(cmd.Context(), cfg, prometheus.DefaultRegisterer)
			if err != nil {
				logger.WithError(err).Fatal("Failed to initialize language identifier")
			}
			echoServer := newEchoServer(a.controller, cfg.Server.Tokens)

			// Start server in a goroutine
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				logger.Infof("Starting server on %s", cfg.Server.Address)
				if err := echoServer.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("Server start error")
					stop()
				}
			}()

			// Wait for interrupt signal to gracefully shutdown the server with a timeout
			<-ctx.Done()
			stop()
			logger.Info("Shutting down server gracefully, press Ctrl+C again to force")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := echoServer.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Server forced to shutdown")
			}
			a.Close()
			logger.Info("Server stopped gracefully")
		},
	}
	serverCommand.Flags().StringVar(&configFile, "config", "", "Path to config file")
	return serverCommand
}
