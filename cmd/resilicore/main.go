package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resilicore/internal/appstate"
	"resilicore/internal/approval"
	"resilicore/internal/backend"
	"resilicore/internal/config"
	"resilicore/internal/dashboard"
	"resilicore/internal/httpserver"
	"resilicore/internal/logging"
	"resilicore/internal/metrics"
	"resilicore/internal/scheduler"
	"resilicore/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := logging.New()

	cfg := config.Load()
	tele := telemetry.New()

	client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, logger, tele)

	roster, err := metrics.LoadRoster(cfg.ServicesPath)
	if err != nil {
		log.Fatalf("load service roster: %v", err)
	}
	engine := metrics.NewEngine(roster, nil, logger)

	state := appstate.NewStore(cfg.StatePath, logger)
	if err := state.Load(); err != nil {
		logger.Warn("load app state", "err", err)
	}

	approvals := approval.NewCoordinator(client, state, logger)
	svc := dashboard.NewService(client, engine, approvals, logger)

	// Prime the read model before serving.
	svc.RefreshIncidents(ctx)
	svc.RefreshAlerts(ctx)

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	sched := scheduler.New(logger, tele)
	sched.Add(scheduler.Stream{Name: "incidents", Interval: cfg.IncidentsInterval, Run: svc.RefreshIncidents})
	sched.Add(scheduler.Stream{Name: "alerts", Interval: cfg.AlertsInterval, Run: svc.RefreshAlerts})
	sched.Add(scheduler.Stream{Name: "demo-notifications", Interval: cfg.NotificationsInterval, Run: scheduler.DemoNotifications(state, rnd)})
	sched.Start()

	handler := httpserver.NewRouter(logger, svc, state, tele)
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	sched.Stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
