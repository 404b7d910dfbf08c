package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	common_api "crm-gateway/internal/common/api"
	"crm-gateway/internal/config"
	"crm-gateway/internal/connectors"
	"crm-gateway/internal/database"
	"crm-gateway/internal/features/account"
	cron_feature "crm-gateway/internal/features/cron"
	"crm-gateway/internal/features/lead"
	"crm-gateway/internal/features/meta"
	sync_feature "crm-gateway/internal/features/sync"
	"crm-gateway/internal/features/system"
	"crm-gateway/internal/features/webhook"
	"crm-gateway/internal/features/whatsapp"
	"crm-gateway/internal/logger"
	"crm-gateway/internal/middleware"
	"crm-gateway/pkg/apperror"
	"crm-gateway/pkg/validation"

	_ "crm-gateway/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			} else {
				code = apperror.StatusOr(err, code)
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(middleware.CORSMiddleware(cfg))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup on every member of the "routes" group
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, logger *zap.Logger) {
	logger.Info("Registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		logger.Debug("Setting up route", zap.String("api", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer starts Fiber in a goroutine and shuts it down with the app
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// LoadAccounts restores persisted accounts and rebuilds their adapters
// before the server accepts traffic
func LoadAccounts(lc fx.Lifecycle, accounts account.AccountService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return accounts.LoadAccounts(ctx)
		},
	})
}

// StartScheduler runs the cron jobs for the lifetime of the app
func StartScheduler(lc fx.Lifecycle, scheduler cron_feature.SchedulerService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, webhookRepo webhook.WebhookEventRepository, runRepo cron_feature.JobRunRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := webhookRepo.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure webhook event indexes", zap.Error(err))
				}
				if err := runRepo.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure job run indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// @title           CRM Gateway API
// @version         1.0
// @description     Multi-tenant CRM integration gateway.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,
			validation.New,
			system.NewHub,

			// Repositories
			account.NewAccountRepository,
			sync_feature.NewSyncStatusRepository,
			webhook.NewWebhookEventRepository,
			meta.NewLeadEventRepository,
			whatsapp.NewMessageRepository,
			cron_feature.NewJobRunRepository,

			// Services
			account.NewAccountService,
			sync_feature.NewSyncService,
			webhook.NewWebhookService,
			lead.NewLeadService,
			meta.NewMetaService,
			whatsapp.NewWhatsAppService,
			cron_feature.NewSchedulerService,

			// Interface adapters between features
			func(s account.AccountService) connectors.AdapterProvider { return s },
			func(s account.AccountService) cron_feature.AccountLister { return s },
			func(s sync_feature.SyncService) webhook.LeadSyncer { return s },
			func(s sync_feature.SyncService) cron_feature.AccountSyncer { return s },
			func(s webhook.WebhookService) cron_feature.WebhookLogPurger { return s },
			func(h *system.Hub) webhook.EventPublisher { return h },
			func(h *system.Hub) meta.EventPublisher { return h },
			func(h *system.Hub) whatsapp.EventPublisher { return h },

			// Controllers
			account.NewAccountController,
			sync_feature.NewSyncController,
			webhook.NewWebhookController,
			lead.NewLeadController,
			meta.NewMetaController,
			whatsapp.NewWhatsAppController,
			cron_feature.NewSchedulerController,
			system.NewHealthController,
			system.NewWebSocketController,

			// Routes
			AsRoute(system.NewHealthApi),
			AsRoute(account.NewAccountApi),
			AsRoute(sync_feature.NewSyncApi),
			AsRoute(lead.NewLeadApi),
			AsRoute(webhook.NewWebhookApi),
			AsRoute(meta.NewMetaApi),
			AsRoute(whatsapp.NewWhatsAppApi),
			AsRoute(cron_feature.NewSchedulerApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			InitializeIndexes,
			LoadAccounts,
			StartScheduler,
			StartServer,
		),
	)

	app.Run()
}
