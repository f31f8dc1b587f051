package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotbook/config"
	"slotbook/cron"
	"slotbook/handlers"
	"slotbook/middleware"
	"slotbook/routes"
	"slotbook/services/balance"
	"slotbook/services/booking"
	"slotbook/services/civiltime"
	"slotbook/services/coordinator"
	"slotbook/services/location"
	"slotbook/services/matching"
	"slotbook/services/slots"
	"slotbook/services/tasks"
	"slotbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var noRefresh bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the status refresher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			logger := utils.GetLogger()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			store, err := openStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			conv := civiltime.NewConverter(civilZone(cfg), nil)

			// The memory backend is single process and runs without Redis.
			var (
				locker       balance.Locker = balance.NewLocalLocker()
				listingCache matching.ListingCache
				reconciler   booking.Reconciler = &tasks.StoreReconciler{Repo: store.Reconciliations, Logger: logger}
				redisClients []*redis.Client
			)
			if !store.Memory() {
				locker = balance.NewRedisLocker(utils.GetLockClient(), cfg.LockTTL())
				listingCache = matching.NewRedisListingCache(utils.GetCacheClient(), logger)
				queue := asynq.NewClient(utils.QueueRedisOpt())
				defer queue.Close()
				reconciler = tasks.NewReconcileQueue(queue)
				redisClients = []*redis.Client{utils.GetCacheClient(), utils.GetLockClient()}
			}

			var charger balance.CardCharger
			if cfg.StripeKey != "" {
				stripe.Key = cfg.StripeKey
				charger = balance.StripeCharger{}
			}

			gen := slots.NewGenerator(conv)
			gen.DefaultCapacity = cfg.DefaultCapacity
			publisher := &slots.Publisher{Generator: gen, Availability: store.Availability, Locations: store.Locations, Logger: logger}
			matchingService := &matching.DefaultMatchingService{
				Availability: store.Availability,
				Bookings:     store.Bookings,
				Converter:    conv,
				Cache:        listingCache,
				Logger:       logger,
			}
			slotCoordinator := &coordinator.DefaultSlotCoordinator{
				Availability: store.Availability,
				Bookings:     store.Bookings,
				Locations:    store.Locations,
				Tolerance:    cfg.SiblingTolerance(),
				Now:          conv.Now,
				Logger:       logger,
			}
			balanceService := &balance.DefaultBalanceService{
				Repo:     store.Balances,
				Locker:   locker,
				Charger:  charger,
				Currency: cfg.Currency,
				Logger:   logger,
			}
			saga := &booking.DefaultBookingSaga{
				Availability: store.Availability,
				Bookings:     store.Bookings,
				Ledger:       balanceService,
				Pricing:      pricing(cfg),
				Reconciler:   reconciler,
				Now:          conv.Now,
				Logger:       logger,
			}
			locationService := &location.DefaultLocationService{Repo: store.Locations, Logger: logger}

			handlerBundle := handlers.NewHandlerBundle(
				handlers.NewLocationHandler(locationService),
				handlers.NewAvailabilityHandler(publisher, matchingService, slotCoordinator),
				handlers.NewBookingHandler(saga),
				handlers.NewBalanceHandler(balanceService),
				handlers.NewReconciliationHandler(store.Reconciliations, logger),
			)

			utils.StartHealthMonitor(ctx, redisClients, store.Mongo)

			if !noRefresh {
				refresher := &cron.Refresher{
					Availability: store.Availability,
					Bookings:     store.Bookings,
					Spec:         cfg.StatusRefreshSpec,
					Now:          conv.Now,
					Logger:       logger,
				}
				if err := refresher.Start(ctx); err != nil {
					return err
				}
				defer refresher.Stop()
			}

			if config.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(gin.Recovery())
			router.Use(utils.ErrorHandler())
			router.Use(gin.Logger())
			router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
			routes.RegisterRoutes(router, handlerBundle)

			srv := &http.Server{
				Addr:    "0.0.0.0:" + cfg.AppPort,
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageBackend))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			logger.Info("Server is shutting down")

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("Server stopped gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "do not run the periodic status refresher")
	return cmd
}
