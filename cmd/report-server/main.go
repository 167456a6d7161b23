package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcu/report/internal/config"
	"github.com/mcu/report/internal/domain/patient"
	"github.com/mcu/report/internal/domain/report"
	"github.com/mcu/report/internal/platform/assets"
	"github.com/mcu/report/internal/platform/autoscale"
	"github.com/mcu/report/internal/platform/db"
	"github.com/mcu/report/internal/platform/middleware"
	"github.com/mcu/report/internal/platform/queue"
	"github.com/mcu/report/internal/platform/render"
	"github.com/mcu/report/internal/platform/storage"
	"github.com/mcu/report/internal/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "report-server",
		Short: "MCU report generation service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(consumeCmd())
	rootCmd.AddCommand(generateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the report API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Run the report generation queue consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsumer()
		},
	}
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one report synchronously and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetString("appointment-patient-id")
			appointmentID, _ := cmd.Flags().GetString("appointment-id")
			lang, _ := cmd.Flags().GetString("language")
			if patientID == "" || appointmentID == "" {
				return fmt.Errorf("--appointment-patient-id and --appointment-id are required")
			}
			return runGenerate(patientID, appointmentID, lang)
		},
	}
	cmd.Flags().String("appointment-patient-id", "", "Appointment patient identifier")
	cmd.Flags().String("appointment-id", "", "Appointment identifier")
	cmd.Flags().String("language", "id", "Report language (id or en)")
	return cmd
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// app holds the wired service graph shared by the serve, consume and
// generate commands.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	pool       *pgxpool.Pool
	queue      *queue.Client
	store      storage.ObjectStore
	patients   *patient.Service
	reports    *report.Service
	closeStore func() error
}

func (a *app) Close() {
	if a.queue != nil {
		_ = a.queue.Close()
	}
	if a.closeStore != nil {
		_ = a.closeStore()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func wire(ctx context.Context, logger zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info().Msg("connected to database")

	a := &app{cfg: cfg, logger: logger, pool: pool}

	a.queue = queue.New(cfg.RabbitMQURL, cfg.QueuePrefix, logger)

	if cfg.GCSBucket != "" {
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open object storage: %w", err)
		}
		a.store = store
		a.closeStore = store.Close
	} else {
		// Development fallback so local runs need no cloud credentials.
		a.store = storage.NewMemStore("local", cfg.GCSPrefix)
	}

	a.patients = patient.NewService(patient.NewRepoPG(pool), logger)

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	resolver := assets.NewResolver(httpClient, a.store, cfg.TmpDir, logger)

	renderer, err := render.New(cfg.TemplateDir, cfg.ChromePath, cfg.TmpDir, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	deliverer := report.NewDeliverer(a.store, a.patients, cfg.GCSPrefix, logger)
	pipeline := report.NewPipeline(a.patients, resolver, renderer, deliverer, cfg.TmpDir, logger)
	a.reports = report.NewService(a.patients, pipeline, a.queue, cfg.ReportQueue, logger)

	return a, nil
}

func runServer() error {
	logger := newLogger()

	ctx := context.Background()
	a, err := wire(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/healthcheck", db.HealthHandler(a.pool))

	api := e.Group("")
	report.NewHandler(a.reports).RegisterRoutes(api)

	// Queue-depth driven autoscaling of the consumer Cloud Run Job. Outside
	// development the jobs client must be constructible or startup fails.
	var scaler *autoscale.Scaler
	if !a.cfg.IsDev() {
		jobs, err := autoscale.NewJobsClient(ctx, a.cfg.CloudRunJobProject, a.cfg.CloudRunJobRegion, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init cloud run jobs client")
		}
		scaler = autoscale.NewScaler(jobs, a.cfg.CloudRunJobName, autoscale.DefaultRules, logger)
	}
	e.POST("/cloud-run-job/activate", autoscale.Handler(a.queue, a.cfg.ReportQueue, scaler, a.cfg.IsDev()))

	go func() {
		addr := ":" + a.cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runConsumer() error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := wire(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	consumer := worker.New(a.queue, a.reports, a.cfg.ReportQueue, logger)
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info().Msg("consumer stopped")
	return nil
}

func runGenerate(appointmentPatientID, appointmentID, lang string) error {
	logger := newLogger()

	ctx := context.Background()
	a, err := wire(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	st, err := a.reports.GenerateNow(ctx, appointmentPatientID, appointmentID, lang)
	if err != nil {
		return err
	}
	fmt.Printf("Report delivered: %s\n", st.DeliveredURL)
	return nil
}
