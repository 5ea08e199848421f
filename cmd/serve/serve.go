package serve

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suteetoe/bizledger/internal/app"
	"github.com/suteetoe/bizledger/internal/handler"
	"github.com/suteetoe/bizledger/internal/i18n"
	"github.com/suteetoe/bizledger/internal/subscription"
	"github.com/suteetoe/bizledger/pkg/jwtutil"
	"github.com/suteetoe/bizledger/pkg/logger"
	"github.com/suteetoe/bizledger/pkg/middleware"
	"github.com/suteetoe/bizledger/prometheus"
)

const portFlag = "port"

var serveFlags = map[string]cobraflags.Flag{
	portFlag: &cobraflags.StringFlag{
		Name:  portFlag,
		Value: "",
		Usage: "Port to listen on (defaults to SERVER_PORT)",
	},
}

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serveCommand,
	}
	cobraflags.RegisterMap(cmd, serveFlags)
	return cmd
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	log.Info("Starting bizledger service...", cfg.LogConfig()...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Warn("Failed to close record store", zap.Error(err))
		}
	}()
	prometheus.SetInfo(app.Version, cfg.Store.Driver)

	catalog, err := i18n.NewCatalog(cfg.Locale.Default)
	if err != nil {
		return err
	}
	gate := subscription.NewGate(subscription.Config{
		WarningDays:    cfg.Subscription.WarningDays,
		ContactPhone:   cfg.Subscription.ContactPhone,
		ContactBaseURL: cfg.Subscription.ContactBaseURL,
	}, catalog)
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	handler.New(a.Controllers, gate, i18n.NewStore(catalog, a.Controllers.Users), jwt).Register(e)

	port := serveFlags[portFlag].GetString()
	if port == "" {
		port = cfg.Server.Port
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
