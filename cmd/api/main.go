package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/calendar"
	"github.com/trinslooks/studio-api/internal/config"
	"github.com/trinslooks/studio-api/internal/db"
	"github.com/trinslooks/studio-api/internal/handlers"
	"github.com/trinslooks/studio-api/internal/httpx"
	"github.com/trinslooks/studio-api/internal/kafkax"
	"github.com/trinslooks/studio-api/internal/notify"
	"github.com/trinslooks/studio-api/internal/otelx"
	"github.com/trinslooks/studio-api/internal/outbox"
	"github.com/trinslooks/studio-api/internal/runtime"
	"github.com/trinslooks/studio-api/internal/storage"
)

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "studio-api")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	apptRepo := storage.NewAppointmentRepository(pool, outboxRepo)
	catalogRepo := storage.NewCatalogRepository(pool)
	contentRepo := storage.NewContentRepository(pool)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	emails := notify.NewSMTPSender(
		config.String("SMTP_HOST", "localhost"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", ""),
		config.String("OPERATOR_EMAIL", ""),
		config.String("STUDIO_NAME", ""),
	)

	var alerts booking.AlertSender = notify.NewNoopAlertSender()
	if url := config.String("ALERT_WEBHOOK_URL", ""); url != "" {
		alerts = notify.NewWebhookAlertSender(url, config.String("ALERT_WEBHOOK_TOKEN", ""))
	}

	var cal booking.CalendarClient = calendar.NewDisabled()
	if url := config.String("CALENDAR_API_URL", ""); url != "" {
		cal = calendar.NewHTTPClient(url, config.String("CALENDAR_API_TOKEN", ""))
	}

	hours := booking.Hours{
		Open:  config.String("BUSINESS_OPEN", "09:00"),
		Close: config.String("BUSINESS_CLOSE", "18:00"),
		Step:  config.Minutes("SLOT_STEP_MINUTES", 30*time.Minute),
	}
	availability := booking.NewAvailability(apptRepo, hours, logger)
	lifecycle := booking.NewLifecycle(apptRepo, catalogRepo, emails, alerts, cal, logger,
		config.Minutes("SIDE_EFFECT_TIMEOUT_MINUTES", 0))

	bookingHandler := handlers.NewBookingHandler(lifecycle, availability, apptRepo, catalogRepo, logger)
	contentHandler := handlers.NewContentHandler(contentRepo, catalogRepo, logger)
	contactHandler := handlers.NewContactHandler(emails, logger)

	// Public write routes get a per-client rate limit; Redis-backed when
	// REDIS_ADDR is set so multiple instances share the window.
	var publicLimit httpx.Middleware
	rlLimit := config.Int("PUBLIC_RATE_LIMIT", 30)
	rlWindow := config.Minutes("PUBLIC_RATE_WINDOW_MINUTES", time.Minute)
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		publicLimit = httpx.NewRedisRateLimiter(rdb, rlLimit, rlWindow, "public").Middleware(logger)
	} else {
		publicLimit = httpx.NewRateLimiter(rlLimit, rlWindow).Middleware()
	}
	limited := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, publicLimit, httpx.WithBodyLimit(1<<20))
	}

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if kafkaBrokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	mux.HandleFunc("/api/v1/public/slots", bookingHandler.Slots)
	mux.Handle("/api/v1/public/book", limited(bookingHandler.Book))
	mux.Handle("/api/v1/public/contact", limited(contactHandler.Submit))
	mux.HandleFunc("/api/v1/public/services", contentHandler.Services)
	mux.HandleFunc("/api/v1/public/content", contentHandler.Content)
	mux.HandleFunc("/api/v1/public/portfolio/categories", contentHandler.Categories)
	mux.HandleFunc("/api/v1/public/portfolio/images", contentHandler.Images)

	mux.HandleFunc("/api/v1/appointments", bookingHandler.List)
	mux.HandleFunc("/api/v1/appointments/confirm", bookingHandler.Confirm)
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/complete", bookingHandler.Complete)
	mux.HandleFunc("/api/v1/appointments/delete", bookingHandler.Delete)
	mux.HandleFunc("/api/v1/admin/services", contentHandler.AdminServices)
	mux.HandleFunc("/api/v1/admin/content", contentHandler.AdminContent)
	mux.HandleFunc("/api/v1/admin/portfolio/categories", contentHandler.AdminCategories)
	mux.HandleFunc("/api/v1/admin/portfolio/images", contentHandler.AdminImages)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(splitOrigins(config.String("CORS_ALLOWED_ORIGINS", "*"))),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
