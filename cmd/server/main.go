package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seatmap/internal/config"
	"github.com/iliyamo/venue-seatmap/internal/database"
	"github.com/iliyamo/venue-seatmap/internal/handler"
	"github.com/iliyamo/venue-seatmap/internal/live"
	"github.com/iliyamo/venue-seatmap/internal/middleware"
	"github.com/iliyamo/venue-seatmap/internal/occupancy"
	"github.com/iliyamo/venue-seatmap/internal/queue"
	"github.com/iliyamo/venue-seatmap/internal/repository"
	"github.com/iliyamo/venue-seatmap/internal/router"
	"github.com/iliyamo/venue-seatmap/internal/service"
	"github.com/iliyamo/venue-seatmap/internal/viewer"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Map documents: MySQL first when configured, then the REST API.
	maps := repository.Chain{}
	if cfg.DBHost != "" {
		db, err := database.Open(ctx, database.Settings{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			log.Printf("database: %v; falling back to %s", err, cfg.MapURL)
		} else {
			defer db.Close()
			maps = append(maps, repository.NewMapRepo(db))
		}
	}
	maps = append(maps, repository.NewHTTPMapSource(cfg.MapURL))

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	snapshots := occupancy.NewCachedSnapshotSource(
		occupancy.NewHTTPSnapshotSource(cfg.OccupancyURL), rdb, config.LoadSnapshotCacheConfig())

	var transport live.Transport
	switch cfg.PushTransport {
	case "amqp":
		transport = queue.NewAMQPTransport(cfg.AMQPURL)
	default:
		transport = live.NewWebSocketTransport(cfg.PushURL)
	}

	deps := viewer.Deps{
		Maps:           maps,
		Snapshots:      snapshots,
		Transport:      transport,
		FrameInterval:  cfg.FrameInterval,
		ReconnectDelay: cfg.ReconnectDelay,
	}
	if cfg.SelectionEventsEnabled {
		pub := service.NewSelectionPublisher(cfg.AMQPURL)
		defer pub.Close()
		deps.Publisher = pub
	}
	manager := viewer.NewManager(deps, viewer.Options{
		Width: cfg.DefaultWidth, Height: cfg.DefaultHeight, DPR: cfg.DefaultDPR,
	})

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, manager)
	limits := config.LoadRateLimitConfig()
	router.RegisterViewer(e, handler.NewViewerHandler(manager),
		middleware.NewTokenBucket(limits, rdb, handler.SkipUnlessMove),
		middleware.NewTokenBucket(limits, rdb))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, push=%s)", addr, cfg.Env, cfg.PushTransport)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down; closing %d viewers", manager.Len())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	manager.CloseAll()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
