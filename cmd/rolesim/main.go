// Command rolesim drives a roles directory with random role invocations
// and prints the resulting state of one person.
//
// Configuration is read from the environment:
//
//	K             active roles per person (default 3)
//	PERSONS       number of persons (default 10)
//	ROLES         number of distinct role names (default 8)
//	OPS           operations per worker (default 10000)
//	WORKERS       concurrent workers (default 4)
//	METRICS_ADDR  serve /metrics on this address and keep running (default off)
//	LOG_LEVEL     debug, info, warn or error (default info)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	promadapter "github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/adapters/prometheus"
	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/directory"
	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/internal/codec"
)

// === Config ===

var (
	capacity    = getEnvInt("K", 3)
	numPersons  = getEnvInt("PERSONS", 10)
	numRoles    = getEnvInt("ROLES", 8)
	opsPerWkr   = getEnvInt("OPS", 10_000)
	numWorkers  = getEnvInt("WORKERS", 4)
	metricsAddr = getEnv("METRICS_ADDR", "")
	logLevel    = getEnv("LOG_LEVEL", "info")
)

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// usage is the message recorded for a role invocation.
type usage struct {
	Resource string    `json:"resource"`
	Worker   int       `json:"worker"`
	At       time.Time `json:"at"`
}

type report struct {
	Complexity map[string]string `json:"complexity"`
	Person     string            `json:"person"`
	Roles      any               `json:"roles"`
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	}))

	if err := run(log); err != nil {
		log.Error("rolesim failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func validateConfig() error {
	if numPersons <= 0 || numRoles <= 0 || numWorkers <= 0 || opsPerWkr <= 0 {
		return fmt.Errorf("PERSONS, ROLES, WORKERS and OPS must be positive")
	}
	return nil
}

func run(log *slog.Logger) error {
	if err := validateConfig(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	m := promadapter.NewAllMetrics(reg)

	dir, err := directory.New[usage](directory.Options{
		Capacity:     capacity,
		Log:          log,
		Metrics:      m.Directory,
		CacheMetrics: m.Cache,
	})
	if err != nil {
		return err
	}
	defer dir.Close()

	persons := make([]string, numPersons)
	for i := range persons {
		persons[i] = "person-" + gonanoid.Must(8)
	}
	roleNames := make([]string, numRoles)
	for i := range roleNames {
		roleNames[i] = fmt.Sprintf("role-%02d", i)
	}

	log.Info("starting simulation",
		slog.Int("k", capacity),
		slog.Int("persons", numPersons),
		slog.Int("roles", numRoles),
		slog.Int("workers", numWorkers),
		slog.Int("ops_per_worker", opsPerWkr),
	)
	startAt := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			rnd := rand.New(rand.NewPCG(uint64(w), uint64(startAt.UnixNano())))
			for i := 0; i < opsPerWkr; i++ {
				person := persons[rnd.IntN(len(persons))]
				role := roleNames[rnd.IntN(len(roleNames))]

				if rnd.IntN(4) == 0 {
					if _, _, err := dir.Lookup(gctx, person, role); err != nil {
						return err
					}
					continue
				}
				msg := usage{Resource: "res-" + strconv.Itoa(rnd.IntN(100)), Worker: w, At: time.Now()}
				if err := dir.Use(gctx, person, role, msg); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	took := time.Since(startAt)
	total := numWorkers * opsPerWkr
	log.Info("simulation done",
		slog.Duration("took", took),
		slog.Int("ops", total),
		slog.Int("ops_per_sec", int(float64(total)/took.Seconds())),
		slog.Int("persons", dir.Persons()),
	)

	entries, err := dir.Entries(ctx, persons[0])
	if err != nil {
		return err
	}
	if err := codec.Write(os.Stdout, codec.JSONCodec{}, report{
		Complexity: dir.Complexity().Map(),
		Person:     persons[0],
		Roles:      entries,
	}); err != nil {
		return err
	}

	if metricsAddr == "" {
		return nil
	}
	return serveMetrics(ctx, log, reg)
}

func serveMetrics(ctx context.Context, log *slog.Logger, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", slog.String("addr", metricsAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
