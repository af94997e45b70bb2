package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iiot-site/internal/api"
	"iiot-site/internal/catalog"
	"iiot-site/internal/common/auth"
	awsclient "iiot-site/internal/common/aws"
	"iiot-site/internal/common/camunda"
	"iiot-site/internal/common/config"
	"iiot-site/internal/common/database"
	apperrors "iiot-site/internal/common/errors"
	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/mail"
	"iiot-site/internal/common/observability"
	"iiot-site/internal/common/outbox"
	"iiot-site/internal/common/zoho"
	"iiot-site/internal/forms/careers"
	"iiot-site/internal/forms/inquiry"
	"iiot-site/internal/submission"
)

var debugAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `serve connects to PostgreSQL and Redis (and Elasticsearch when enabled),
then serves the form endpoints, the catalog API, /health, /ready and /metrics
until SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&debugAddr, "debug-addr", "", "Serve pprof on this address (disabled when empty)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, zapLog, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLog.Sync() //nolint:errcheck

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLog.Info("Starting site server",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// --- Init Observability ---
	obs, err := observability.New(observability.Options{ServiceName: cfg.App.Name, Logger: log})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	obs.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			zapLog.Warn("observability shutdown failed", zap.Error(err))
		}
	}()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(ctx, func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		return err
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	ready := map[string]api.Pinger{"postgres": pg, "redis": rdb}

	// --- Init Elasticsearch with retry (optional) ---
	var search catalog.SearchIndex
	if cfg.Database.Elasticsearch.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return err
		}
		index := catalog.NewESIndex(es.Client, cfg.Database.Elasticsearch.Index)
		if err := index.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("ensure search index: %w", err)
		}
		search = index
		ready["elasticsearch"] = es
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Mail ---
	transport, err := mail.NewTransport(ctx, cfg, log)
	if err != nil {
		return err
	}
	recipients := mail.RecipientsFromConfig(cfg.Mail.Recipients)
	sender := submission.Sender{Address: cfg.Mail.From, Name: cfg.App.Name}

	var (
		enqueuer submission.Enqueuer
		drainer  *outbox.Drainer
	)
	if cfg.Outbox.Enabled {
		queue := outbox.NewQueue(rdb.Client, cfg.Outbox.Key)
		enqueuer = queue
		drainer = outbox.NewDrainer(queue, transport, config.GetDuration(cfg.Outbox.Interval), cfg.Outbox.MaxAttempts, log)
	}

	// --- Follow-ups ---
	inquiryFollowUps, careersFollowUps, closeFollowUps, err := buildFollowUps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFollowUps()

	inquiryPipeline := inquiry.NewPipeline(inquiry.Dependencies{
		Repository: inquiry.NewRepository(pg.DB, log),
		Transport:  transport,
		Recipients: recipients,
		Sender:     sender,
		Outbox:     enqueuer,
		FollowUps:  inquiryFollowUps,
		Logger:     log.With(map[string]interface{}{"form": "inquiry"}),
		Obs:        obs,
	})
	careersPipeline := careers.NewPipeline(careers.Dependencies{
		Repository: careers.NewRepository(pg.DB, log),
		Transport:  transport,
		Recipients: recipients,
		Sender:     sender,
		Outbox:     enqueuer,
		FollowUps:  careersFollowUps,
		Logger:     log.With(map[string]interface{}{"form": "careers"}),
		Obs:        obs,
	})

	// --- Catalog ---
	eh := apperrors.NewErrorHandler(log)
	cache := catalog.NewCache(rdb.Client, config.GetDuration(cfg.Catalog.CacheTTL), log)
	svc := catalog.NewService(catalog.NewPostgresRepository(pg.DB), cache, search, catalog.Options{
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
	}, log)

	kc := cfg.Auth.Keycloak
	var adminAuth gin.HandlerFunc
	if kc.URL != "" {
		introspector := auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret)
		adminAuth = auth.RequireRole(introspector, kc.AdminRole, eh)
	} else {
		zapLog.Warn("Keycloak not configured, admin catalog routes disabled")
	}

	router := api.NewRouter(api.Options{
		Inquiry:   inquiryPipeline,
		Careers:   careersPipeline,
		Catalog:   catalog.NewHandler(svc, eh, log),
		AdminAuth: adminAuth,
		Limits: submission.Limits{
			MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
			MaxMemoryBytes: cfg.HTTP.MaxMemoryBytes,
		},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Ready:          ready,
		ErrorHandler:   eh,
		Logger:         log,
	})

	stopBackground := func() {}
	if drainer != nil {
		stopBackground = startBackground(ctx, drainer)
		zapLog.Info("Outbox drainer started", zap.String("key", cfg.Outbox.Key))
	}
	// Runs before the client Close defers above.
	defer func() {
		stopBackground()
		inquiryPipeline.Wait()
		careersPipeline.Wait()
	}()

	if debugAddr != "" {
		go func() {
			zapLog.Info("Starting pprof server", zap.String("addr", debugAddr))
			if err := http.ListenAndServe(debugAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLog.Error("pprof server failed", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, draining requests...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("HTTP server did not shut down cleanly", zap.Error(err))
	}
	zapLog.Info("Server stopped")
	return nil
}

type backgroundTask interface {
	Run(ctx context.Context)
}

// startBackground runs each task until the returned stop func is called.
// stop cancels the tasks and blocks until all of them have returned.
func startBackground(ctx context.Context, tasks ...backgroundTask) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t backgroundTask) {
			defer wg.Done()
			t.Run(ctx)
		}(t)
	}
	return func() {
		cancel()
		wg.Wait()
	}
}

// buildFollowUps creates the enabled CRM, SMS and workflow side channels.
// The returned func closes whatever was opened.
func buildFollowUps(ctx context.Context, cfg *config.Config, log logger.Logger) (inq, car []submission.FollowUp, closeAll func(), err error) {
	closeAll = func() {}

	if z := cfg.Integrations.Zoho; z.Enabled {
		crm := zoho.NewCRMClient(z.BaseURL, z.AuthToken)
		inq = append(inq, inquiry.NewCRMFollowUp(crm, z.LeadSource, log))
	}

	if s := cfg.Integrations.AWS.SNS; s.Enabled {
		client, err := awsclient.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			return nil, nil, closeAll, fmt.Errorf("create sns client: %w", err)
		}
		inq = append(inq, inquiry.NewSalesAlertFollowUp(client, s.AlertPhone, s.SenderID, s.HotTimeline))
	}

	if c := cfg.Camunda; c.Enabled {
		client, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         c.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(c.RequestTimeout),
		})
		if err != nil {
			return nil, nil, closeAll, err
		}
		closeAll = func() {
			if err := client.Close(); err != nil {
				log.Warn("zeebe client close failed", map[string]interface{}{"error": err})
			}
		}
		workflow := submission.NewWorkflowFollowUp(client, c.MessageName)
		inq = append(inq, workflow)
		car = append(car, workflow)
	}

	return inq, car, closeAll, nil
}
