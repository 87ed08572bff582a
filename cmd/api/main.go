package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brand-er1/clothology-express-sub000/internal/handlers"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/auth"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/config"
	pfirestore "github.com/brand-er1/clothology-express-sub000/internal/platform/firestore"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/idempotency"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/imagegen"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/jobs"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/observability"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/secrets"
	platformstorage "github.com/brand-er1/clothology-express-sub000/internal/platform/storage"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
	firestoreRepo "github.com/brand-er1/clothology-express-sub000/internal/repositories/firestore"
	"github.com/brand-er1/clothology-express-sub000/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		os.Stderr.WriteString("failed to initialise logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := newSecretFetcher(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
	)
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("configuration incomplete", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(cfg, startedAt)

	var clientOpts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore, pfirestore.WithClientOptions(clientOpts...))
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}

	healthRepo, err := newHealthRepository(firestoreClient, fetcher)
	if err != nil {
		logger.Fatal("failed to initialise health checks", zap.Error(err))
	}

	registry, err := firestoreRepo.NewRegistry(firestoreProvider, firestoreRepo.WithHealthRepository(healthRepo))
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := registry.Close(closeCtx); err != nil {
			logger.Warn("repository close error", zap.Error(err))
		}
	}()

	uploader, err := platformstorage.NewUploaderWithOptions(ctx, cfg.Storage, clientOpts)
	if err != nil {
		logger.Fatal("failed to initialise storage uploader", zap.Error(err))
	}
	defer func() {
		if err := uploader.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	generator, err := imagegen.NewClient(ctx, cfg.GenAI)
	if err != nil {
		logger.Fatal("failed to initialise image generation client", zap.Error(err))
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.Firebase.ProjectID, clientOpts...)
	if err != nil {
		logger.Fatal("failed to initialise pubsub client", zap.Error(err))
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logger.Warn("pubsub close error", zap.Error(err))
		}
	}()
	emailTopic := pubsubClient.Topic(cfg.Mail.Topic)
	defer emailTopic.Stop()

	publisher, err := jobs.NewPubSubEmailPublisher(emailTopic)
	if err != nil {
		logger.Fatal("failed to initialise email publisher", zap.Error(err))
	}

	notificationService, err := services.NewNotificationService(services.NotificationServiceDeps{
		Publisher:   publisher,
		AdminEmails: cfg.Mail.AdminEmails,
		FromAddress: cfg.Mail.FromAddress,
		Clock:       time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise notification service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:        registry.Orders(),
		Drafts:        registry.Drafts(),
		Profiles:      registry.Profiles(),
		Notifications: notificationService,
		Clock:         time.Now,
		Logger:        zapEventLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	draftService, err := services.NewDraftService(services.DraftServiceDeps{
		Drafts: registry.Drafts(),
		Clock:  time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise draft service", zap.Error(err))
	}

	imageGenService, err := services.NewImageGenService(services.ImageGenServiceDeps{
		Generator:  generator,
		Store:      uploader,
		Images:     registry.GeneratedImages(),
		Prompts:    registry.SystemPrompts(),
		Clock:      time.Now,
		ImageCount: cfg.GenAI.ImageCount,
		Logger:     zapEventLogger(logger.Named("imagegen")),
	})
	if err != nil {
		logger.Fatal("failed to initialise image generation service", zap.Error(err))
	}

	recommendationService, err := services.NewRecommendationService(services.RecommendationServiceDeps{
		Profiles: registry.Profiles(),
	})
	if err != nil {
		logger.Fatal("failed to initialise recommendation service", zap.Error(err))
	}

	userService, err := services.NewUserService(services.UserServiceDeps{
		Profiles:  registry.Profiles(),
		Addresses: registry.Addresses(),
		Clock:     time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise user service", zap.Error(err))
	}

	systemService, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: registry.Health(),
		Clock:            time.Now,
		Build:            buildInfo,
	})
	if err != nil {
		logger.Fatal("failed to initialise system service", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier, auth.WithUserGetter(firebaseVerifier))

	idempotencyStore, err := idempotency.NewFirestoreStore(firestoreProvider, time.Now)
	if err != nil {
		logger.Fatal("failed to initialise idempotency store", zap.Error(err))
	}
	idempotencyMiddleware := idempotency.NewMiddleware(idempotencyStore, cfg.Idempotency.Header, cfg.Idempotency.TTL)

	oidcMiddleware := buildOIDCMiddleware(logger.Named("auth"), cfg)

	jobsLogger := logger.Named("jobs")
	emailDispatcher := func(_ context.Context, job jobs.EmailJobMessage) error {
		// Delivery runs in the external mail worker; the push endpoint records
		// receipt so operators can trace a job end to end.
		jobsLogger.Info("email job received",
			zap.String("jobId", job.JobID),
			zap.String("orderId", job.OrderID),
			zap.String("template", job.Template),
			zap.Int("recipients", len(job.Recipients)),
		)
		return nil
	}

	healthHandlers := handlers.NewHealthHandlers(handlers.WithSystemService(systemService))
	catalogHandlers := handlers.NewCatalogHandlers()
	meHandlers := handlers.NewMeHandlers(authenticator, userService)
	customizeHandlers := handlers.NewCustomizeHandlers(authenticator, draftService, imageGenService, recommendationService,
		handlers.WithGenerationLimit(cfg.GenAI.RequestsPerMin, cfg.GenAI.RequestsPerMin),
	)
	orderHandlers := handlers.NewOrderHandlers(authenticator, orderService,
		handlers.WithIdempotency(idempotencyMiddleware),
	)
	adminHandlers := handlers.NewAdminHandlers(authenticator, orderService, imageGenService)
	internalHandlers := handlers.NewInternalJobHandlers(emailDispatcher)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
		handlers.RateLimitMiddleware(cfg.RateLimits.DefaultPerMinute, cfg.RateLimits.AuthenticatedPerMinute),
	}

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithCORS(cfg.Server.AllowedOrigins...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(catalogHandlers.Routes),
		handlers.WithMeRoutes(meHandlers.Routes),
		handlers.WithCustomizeRoutes(customizeHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
		handlers.WithInternalRoutes(internalHandlers.Routes),
	}
	if oidcMiddleware != nil {
		opts = append(opts, handlers.WithInternalMiddlewares(oidcMiddleware))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("clothology api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("API_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Security.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

// newHealthRepository probes the dependencies the storefront cannot serve
// without. The secret manager probe treats NotFound as healthy since only
// reachability matters.
func newHealthRepository(client *firestore.Client, fetcher *secrets.Fetcher) (repositories.HealthRepository, error) {
	checks := make([]repositories.DependencyCheck, 0, 2)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if fetcher != nil {
		const secretHealthReference = "secret://system/healthz?version=latest"
		checks = append(checks, repositories.DependencyCheck{
			Name:    "secretManager",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := fetcher.Resolve(ctx, secretHealthReference)
				if err == nil {
					return nil
				}
				if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
					return nil
				}
				return err
			},
		})
	}
	return repositories.NewDependencyHealthRepository(checks)
}

func buildOIDCMiddleware(logger *zap.Logger, cfg config.Config) func(http.Handler) http.Handler {
	if strings.TrimSpace(cfg.Security.OIDC.JWKSURL) == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	adapter := observability.NewPrintfAdapter(logger)
	cache := auth.NewJWKSCache(cfg.Security.OIDC.JWKSURL, auth.WithJWKSLogger(adapter))
	validator := auth.NewOIDCValidator(cache, auth.WithOIDCLogger(adapter))

	audience := strings.TrimSpace(cfg.Security.OIDC.Audience)
	if audience == "" {
		logger.Warn("auth: OIDC audience not configured; internal routes will reject requests")
	}
	issuers := cfg.Security.OIDC.Issuers
	if len(issuers) == 0 {
		logger.Warn("auth: OIDC issuers not configured; internal routes will reject requests")
	}

	return validator.RequireOIDC(audience, issuers)
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func zapEventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug(event, zFields...)
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	envLabel := strings.ToLower(lookup("API_SECURITY_ENVIRONMENT"))
	if envLabel == "" {
		envLabel = "local"
	}
	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	credentialsFile := lookup("API_FIREBASE_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithEnvironment(envLabel),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}
