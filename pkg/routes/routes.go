// Package routes wires the service together as an fx module and registers
// the HTTP routes.
package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"ComplaintDesk/internal/auth"
	"ComplaintDesk/internal/complaint"
	"ComplaintDesk/internal/config"
	"ComplaintDesk/internal/notification"
	"ComplaintDesk/internal/notifier"
	"ComplaintDesk/internal/pkg/logger"
	"ComplaintDesk/internal/pkg/worker"
	"ComplaintDesk/pkg/middleware"
)

// EchoModules provides every component of the service. The caller supplies
// the loaded *config.Config.
var EchoModules = fx.Module("echo",
	fx.Provide(
		config.NewMongoDBClient,
		NewEchoServer,
		NewPools,
		NewSigner,
		middleware.NewEnforcer,

		auth.NewUserRepository,
		auth.NewUserService,
		auth.NewAuthHandler,

		complaint.NewRepository,
		complaint.NewHandler,
		NewComplaintService,

		notification.NewNotificationRepository,
		notification.NewDeliveryRepository,
		NewNotificationService,
		notification.NewNotificationHandler,
		notifier.New,
		NewFanout,
		NewRetryScheduler,
	),
	fx.Invoke(
		RegisterRoutes,
		func(s *notification.RetryScheduler, lc fx.Lifecycle) { s.Start(lc) },
	),
)

// NewSigner creates the token signer from the configured key.
func NewSigner(cfg *config.Config) *auth.Signer {
	return auth.NewSigner(cfg.JWT.Key)
}

// NewPools creates the worker pools and releases them on stop.
func NewPools(lc fx.Lifecycle, cfg *config.Config) (*worker.Pools, error) {
	pools, err := worker.NewPools(context.Background(), worker.PoolConfig{
		EventPoolSize:    cfg.Notify.EventWorkers,
		DeliveryPoolSize: cfg.Notify.DeliveryWorkers,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("draining worker pools")
			pools.Shutdown(cfg.Server.ShutdownTimeout)
			return nil
		},
	})
	return pools, nil
}

// NewFanout binds the notification fanout to its stores and the delivery
// pool.
func NewFanout(
	users *auth.UserRepository,
	inbox *notification.NotificationRepository,
	deliveries *notification.DeliveryRepository,
	n *notifier.Dispatcher,
	pools *worker.Pools,
	cfg *config.Config,
) *notification.Fanout {
	return notification.NewFanout(users, inbox, deliveries, n, pools.Delivery, cfg.Notify.RetryInterval)
}

// NewRetryScheduler creates the scheduler for failed deliveries.
func NewRetryScheduler(
	deliveries *notification.DeliveryRepository,
	inbox *notification.NotificationRepository,
	n *notifier.Dispatcher,
	pools *worker.Pools,
	cfg *config.Config,
) *notification.RetryScheduler {
	return notification.NewRetryScheduler(deliveries, inbox, n, pools.Delivery, cfg.Notify.RetryInterval, cfg.Notify.MaxAttempts)
}

// NewNotificationService serves a user's notifications from the Mongo
// repository.
func NewNotificationService(repo *notification.NotificationRepository) *notification.NotificationService {
	return notification.NewNotificationService(repo)
}

// NewComplaintService connects the complaint workflow to persistence and
// the notification fanout.
func NewComplaintService(
	store *complaint.Repository,
	users *auth.UserRepository,
	fanout *notification.Fanout,
	pools *worker.Pools,
) *complaint.Service {
	return complaint.NewService(store, users, fanout, pools)
}

// NewEchoServer creates the echo instance and ties it to the fx lifecycle.
func NewEchoServer(lc fx.Lifecycle, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler

	e.Use(echomw.RequestID())
	e.Use(middleware.AccessLog())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORS.Origins(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	addr := cfg.Server.Addr()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("http server starting", zap.String("addr", addr))
			go func() {
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down the http server")
			return e.Shutdown(ctx)
		},
	})
	return e
}

// Handlers groups the route handlers.
type Handlers struct {
	fx.In

	Auth         *auth.AuthHandler
	Complaint    *complaint.Handler
	Notification *notification.NotificationHandler
}

// RegisterRoutes mounts every route. Everything under /api except login
// requires a token and passes the route RBAC gate.
func RegisterRoutes(
	e *echo.Echo,
	h Handlers,
	signer *auth.Signer,
	users *auth.UserRepository,
	enforcer *casbin.Enforcer,
	db *mongo.Database,
	pools *worker.Pools,
) {
	e.GET("/healthz", health(db, pools))
	e.POST("/api/auth/login", h.Auth.Login)

	api := e.Group("/api",
		middleware.JWTMiddleware(signer, users),
		middleware.CasbinMiddleware(enforcer),
	)
	api.GET("/auth/me", h.Auth.Profile)

	complaints := api.Group("/complaints")
	complaints.POST("", h.Complaint.Create)
	complaints.GET("", h.Complaint.List)
	complaints.GET("/stats/summary", h.Complaint.Stats)
	complaints.GET("/:id", h.Complaint.Get)
	complaints.PUT("/:id", h.Complaint.Update)
	complaints.DELETE("/:id", h.Complaint.Delete)
	complaints.PUT("/:id/status", h.Complaint.UpdateStatus)
	complaints.PUT("/:id/assign", h.Complaint.Assign)
	complaints.POST("/:id/feedback", h.Complaint.SubmitFeedback)

	notifications := api.Group("/notifications")
	notifications.GET("", h.Notification.List)
	notifications.GET("/unread-count", h.Notification.UnreadCount)
	notifications.PUT("/read-all", h.Notification.MarkAllRead)
	notifications.PUT("/:id/read", h.Notification.MarkRead)
}

func health(db *mongo.Database, pools *worker.Pools) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, code := "ok", http.StatusOK
		if err := db.Client().Ping(c.Request().Context(), nil); err != nil {
			logger.Warn("health check: mongodb unreachable", zap.Error(err))
			status, code = "degraded", http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]interface{}{
			"status":  status,
			"workers": pools.Metrics(),
		})
	}
}
