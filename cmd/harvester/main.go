package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"drop_harvester/internal/browser"
	"drop_harvester/internal/config"
	"drop_harvester/internal/harvest"
	"drop_harvester/internal/httpapi"
	"drop_harvester/internal/logbus"
	"drop_harvester/internal/notify"
	"drop_harvester/internal/platform"
	"drop_harvester/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config.yaml")
	workers := flag.Int("workers", 0, "worker pool size, overrides config (0 = one per account)")
	only := flag.String("accounts", "", "comma-separated usernames to run, default all stored")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *workers > 0 {
		cfg.Harvest.Workers = *workers
	}

	bus := logbus.New(200)
	bus.Log("info", "harvester starting", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	accounts, err := store.List(ctx)
	if err != nil {
		log.Fatalf("list accounts: %v", err)
	}
	if *only != "" {
		keep := map[string]bool{}
		for _, name := range strings.Split(*only, ",") {
			keep[strings.TrimSpace(name)] = true
		}
		filtered := accounts[:0]
		for _, acc := range accounts {
			if keep[acc.Username] {
				filtered = append(filtered, acc)
			}
		}
		accounts = filtered
	}
	if len(accounts) == 0 {
		log.Fatal("no accounts to run; add some with the addaccount tool")
	}

	notifier := notify.NewFromConfig(cfg.Notify, store, bus)

	drivers := func(headless bool) (platform.Driver, error) {
		return browser.New(browser.Options{
			Headless:    cfg.Browser.Headless,
			UserAgent:   cfg.Browser.UserAgent,
			FindTimeout: cfg.Browser.FindTimeout(),
		}, headless)
	}

	factory := platform.NewFactory(platform.FactoryOptions{
		Platform: cfg.Platform,
		Harvest:  cfg.Harvest,
		Limits:   cfg.Limits,
		Pace:     cfg.Pace,
		Headless: cfg.Browser.Headless,
		Drivers:  drivers,
		Store:    store,
		Bus:      bus,
		Notifier: notifier,
	})

	pool := harvest.NewPool(harvest.Options{
		Factory:        factory,
		Workers:        cfg.Harvest.Workers,
		Cycle:          cfg.Harvest.PresencePoll(),
		Bus:            bus,
		Notifier:       notifier,
		NotifyOnFinish: cfg.Harvest.NotifyOnFinish,
	})

	var server *http.Server
	if cfg.Server.Addr != "" {
		api := httpapi.New(httpapi.Options{Cfg: cfg, Bus: bus, State: pool})
		server = &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			bus.Log("info", "status server listening", map[string]any{"addr": cfg.Server.Addr})
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				bus.Log("error", "status server error", map[string]any{"error": err.Error()})
			}
		}()
	}

	runDone := make(chan error, 1)
	go func() {
		runDone <- pool.Run(ctx, accounts)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		bus.Log("info", "shutdown signal received", map[string]any{"signal": sig.String()})
		cancel()
		<-runDone
	case err := <-runDone:
		if err != nil {
			bus.Log("error", "run failed", map[string]any{"error": err.Error()})
		}
	}

	finishCtx, finishCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer finishCancel()

	if cfg.Harvest.AlertAdminsAtEnd {
		notifier.Broadcast(finishCtx, true, "harvest run finished")
	}
	if server != nil {
		_ = server.Shutdown(finishCtx)
	}
	bus.Log("info", "harvester stopped", nil)
}
