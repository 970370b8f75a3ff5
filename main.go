package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	ginlogrus "github.com/toorop/gin-logrus"

	"promptq/config"
	"promptq/consumer_tracker"
	"promptq/external"
	"promptq/http_handler"
	"promptq/journal"
	"promptq/objectstore"
	"promptq/prompt_cache"
	"promptq/prompts"
	"promptq/ratelimit"
	"promptq/sheet"
	"promptq/stats_collector"
)

func main() {
	var wg sync.WaitGroup
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	wg.Add(1)
	go func() {
		defer wg.Done()
		watchForShutdown(ctx, cancelFn)
	}()

	cfg, err := config.ReadConfig()
	if err != nil {
		panic(err)
	}

	logLevel := log.InfoLevel

	// Both Sentry & Pyroscope are optional and off by default. Read more:
	// https://docs.sentry.io/platforms/go
	// https://pyroscope.io/docs/golang
	external.InitSentry()
	external.InitPyroscope()

	if cfg.Logging.Debug {
		logLevel = log.DebugLevel
	}
	SetupLogger(
		logLevel,
		cfg.Logging.SaveLogs,
		cfg.Logging.MaxSize,
		cfg.Logging.MaxAge,
		cfg.Logging.MaxBackups,
		cfg.Logging.Compress,
	)

	log.Infof("promptq starting")

	location, err := time.LoadLocation(cfg.Sheet.Timezone)
	if err != nil {
		log.Warnf("Unknown timezone %q, using %s: %s", cfg.Sheet.Timezone, prompts.DefaultZone, err)
		location = prompts.DefaultLocation()
	}

	store, memoryStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open sheet store: %s", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// choose the statsCollector we will use.
	statsCollector := stats_collector.GetStatsCollector(cfg, r)

	limiter := ratelimit.New(cfg.RateLimit.MaxCalls, cfg.RateLimitWindow(),
		ratelimit.WithWaitObserver(func(d time.Duration) {
			log.Infof("Rate limit reached, waiting %s", d)
			statsCollector.ObserveRateLimitWait(d.Seconds())
		}))
	limitedStore := sheet.NewLimitedStore(store, limiter, statsCollector)

	cache := prompt_cache.New(cfg.CacheTTL(), prompt_cache.WithStats(statsCollector))
	wg.Add(1)
	go func() {
		defer wg.Done()
		cache.Run(ctx)
	}()

	consumers := consumer_tracker.NewConsumerTracker(cfg.ConsumerTTL())
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumers.Run(ctx)
	}()

	var transitionJournal journal.Journal = journal.NewNoopJournal()
	if cfg.JournalEnabled() {
		mysqlJournal, err := journal.Open(journal.Settings{
			Addr:     cfg.Database.Addr,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Db:       cfg.Database.Db,
			MaxPool:  cfg.Database.MaxPool,
		})
		if err != nil {
			log.Fatalf("failed to open journal: %s", err)
		}
		transitionJournal = mysqlJournal
	}

	var uploader objectstore.Uploader = objectstore.NewNoopUploader()
	if cfg.Drive.FolderId != "" {
		credentials := cfg.Drive.CredentialsFile
		if credentials == "" {
			credentials = cfg.Sheet.CredentialsFile
		}
		driveUploader, err := objectstore.NewDriveUploader(ctx, cfg.Drive.FolderId, credentials)
		if err != nil {
			log.Fatalf("failed to setup drive uploader: %s", err)
		}
		uploader = driveUploader
	}

	table := sheet.Table{SpreadsheetID: cfg.Sheet.SpreadsheetId, Sheet: cfg.Sheet.SheetName}
	promptService := prompts.NewService(limitedStore, table, cache, prompts.Options{
		Location:  location,
		Stats:     statsCollector,
		Journal:   transitionJournal,
		Consumers: consumers,
	})

	handler := http_handler.NewHTTPHandler(promptService, http_handler.FileSettings{
		BaseDir:        cfg.Files.BaseDir,
		UploadsDir:     cfg.Files.UploadsDir,
		MaxUploadBytes: cfg.Files.MaxUploadMiB << 20,
	}, uploader, limiter, statsCollector)

	if cfg.Logging.Debug {
		r.Use(ginlogrus.Logger(log.StandardLogger()))
	} else {
		r.Use(gin.Recovery())
	}
	r.Use(http_handler.RequestId())
	registerRoutes(r, handler)

	StartStatsLogger(ctx, limiter, cache)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	wg.Add(1)
	go func() {
		defer cancelFn()
		defer wg.Done()

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Failed to listen and start http server: %s", err)
		}
	}()

	log.Infof("promptq serving %s on port %d", table.Key(), cfg.Port)

	// wait for shutdown to be signaled, either by watchForShutdown() or by the
	// http server failing to start.
	<-ctx.Done()

	log.Info("Starting shutdown...")

	// Give open requests 5 seconds to finish before pulling the plug.
	shutdownCtx, shutdownCancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancelFn()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		if err == context.DeadlineExceeded {
			log.Warn("Graceful shutdown timed out, exiting.")
		} else {
			log.Errorf("Error during http server shutdown: %s", err)
		}
	}

	log.Info("http server is shutdown, waiting for other go routines to exit...")
	wg.Wait()

	if memoryStore != nil && cfg.Sheet.SnapshotFile != "" {
		if err := memoryStore.SaveSnapshot(cfg.Sheet.SnapshotFile); err != nil {
			log.Errorf("Failed to save sheet snapshot: %s", err)
		} else {
			log.Infof("Sheet snapshot written to %s", cfg.Sheet.SnapshotFile)
		}
	}
	if err := transitionJournal.Close(); err != nil {
		log.Warnf("Error closing journal: %s", err)
	}
	external.StopPyroscope()
	external.FlushSentry()

	log.Info("promptq exiting!")
}

// openStore returns the configured remote store. In memory mode the
// MemoryStore is also returned so it can be snapshotted on exit.
func openStore(ctx context.Context, cfg config.Definition) (sheet.Store, *sheet.MemoryStore, error) {
	if !cfg.Sheet.InMemory {
		store, err := sheet.NewGoogleStore(ctx, cfg.Sheet.SpreadsheetId, cfg.Sheet.CredentialsFile)
		return store, nil, err
	}

	memoryStore := sheet.NewMemoryStore()
	if cfg.Sheet.SnapshotFile != "" {
		err := memoryStore.LoadSnapshot(cfg.Sheet.SnapshotFile)
		switch {
		case err == nil:
			log.Infof("Loaded sheet snapshot from %s", cfg.Sheet.SnapshotFile)
			return memoryStore, memoryStore, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, nil, err
		}
	}
	log.Infof("Using an empty in-memory sheet %q", cfg.Sheet.SheetName)
	memoryStore.SetSheet(cfg.Sheet.SheetName, [][]string{prompts.DefaultHeaders})
	return memoryStore, memoryStore, nil
}
