package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/aggregate"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/config"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/events"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/httpapi"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/observability"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/scheduler"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/secrets"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source/dealby"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source/egr"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source/instagram"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source/onliner"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source/twogis"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source/yandex"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/store"
)

func main() {
	// Data dir: env wins (a supervisor can pass one), else local folder.
	dataDir := os.Getenv("LEADS_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config bootstrap failed: %v\n", err)
		os.Exit(1)
	}

	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed (%s): %v\n", userCfgPath, err)
		os.Exit(1)
	}
	cfgVal.Store(cfg)
	cfgFn := func() config.Config { return cfgVal.Load().(config.Config) }

	log := observability.NewLogger(cfg.App.Env)

	// One engine per data dir.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		log.Fatal().Err(err).Str("dir", dataDir).Msg("another instance holds the data dir")
	}
	defer lock.Unlock()

	dbPath := filepath.Join(dataDir, "leads.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	hub := events.NewHub()
	metrics := observability.NewMetrics()

	runner := &aggregate.Runner{
		DB:      db.Pool,
		Hub:     hub,
		Metrics: metrics,
		Log:     log,
		Config:  cfgFn,
		Sources: buildSources(cfg).Entries(),
	}

	// Runs keep going through HTTP shutdown; only process exit stops them.
	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()
	sched := scheduler.New(log, cfgFn, func(context.Context) error {
		_, err := runner.Run(runCtx)
		return err
	})
	sched.Start(runCtx)
	defer sched.Stop()

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db.Pool,
		Hub:         hub,
		Scheduler:   sched,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("listen")
	}

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover(log),
			httpapi.AccessLog(log),
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		log.Fatal().Err(err).Msg("shutdown token")
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	if err := writeRuntimeInfo(dataDir, addr, token); err != nil {
		log.Warn().Err(err).Msg("write runtime info")
	}

	log.Info().
		Str("addr", addr).
		Str("db", dbPath).
		Strs("sources", sourceNames(runner.Sources)).
		Msg("engine listening")

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server")
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutCtx)
}

// buildSources wires every enabled provider with its rate limiter and
// credential. Instagram's "key" is a session cookie, not an API key.
func buildSources(cfg config.Config) *source.Registry {
	reg := &source.Registry{}
	for _, s := range cfg.EnabledSources() {
		sc := cfg.ForSource(s)
		client := source.NewClient(sc.RPS, burstFor(sc.RPS))
		key := secrets.APIKey(s, sc.APIKey)

		switch s {
		case domain.SourceTwoGIS:
			reg.Add(twogis.New(twogis.Config{APIKey: key, Client: client}), sc.Concurrency)
		case domain.SourceYandex:
			reg.Add(yandex.New(yandex.Config{APIKey: key, Client: client}), sc.Concurrency)
		case domain.SourceEGR:
			reg.Add(egr.New(egr.Config{Client: client}), sc.Concurrency)
		case domain.SourceOnliner:
			reg.Add(onliner.New(onliner.Config{Client: client}), sc.Concurrency)
		case domain.SourceDealBy:
			reg.Add(dealby.New(dealby.Config{Client: client}), sc.Concurrency)
		case domain.SourceInstagram:
			reg.Add(instagram.New(instagram.Config{SessionID: key, Client: client}), sc.Concurrency)
		}
	}
	return reg
}

func burstFor(rps float64) int {
	if rps >= 2 {
		return int(rps)
	}
	return 1
}

func sourceNames(entries []source.RegistryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, string(e.Fetcher.Name()))
	}
	return out
}

// writeRuntimeInfo drops addr+token where a local supervisor can find them.
func writeRuntimeInfo(dataDir, addr, token string) error {
	b, _ := json.Marshal(map[string]string{
		"addr":           addr,
		"shutdown_token": token,
	})
	return os.WriteFile(filepath.Join(dataDir, "engine.json"), b, 0o600)
}
