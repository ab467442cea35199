package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/router"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type loadtestFlags struct {
	users       int
	concurrency int
	ops         int
	redisAddr   string
	prefix      string
}

func init() {
	flags := new(loadtestFlags)

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure contended registration and guard navigation against redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.users <= 0 || flags.concurrency <= 0 || flags.ops <= 0 {
				return fmt.Errorf("users, concurrency, and ops must be > 0")
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&flags.users, "users", 200, "number of users to register concurrently")
	fs.IntVar(&flags.concurrency, "concurrency", 32, "number of concurrent workers")
	fs.IntVar(&flags.ops, "ops", 20000, "navigations to run")
	fs.StringVar(&flags.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	fs.StringVar(&flags.prefix, "prefix", "ga-load", "redis key prefix")

	rootCmd.AddCommand(cmd)
}

func runLoadtest(ctx context.Context, out io.Writer, flags *loadtestFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	addr := flags.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var client redis.UniversalClient
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Fprintf(out, "using miniredis at %s\n", addr)
	} else {
		fmt.Fprintf(out, "using redis at %s\n", addr)
	}
	client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer func() { _ = client.Close() }()

	cfg := goAdmin.DefaultConfig()
	cfg.Session.RedisPrefix = flags.prefix
	cfg.Session.Namespace = fmt.Sprintf("run%d", time.Now().UnixNano())
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := goAdmin.New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	registerStats := runRegisterPhase(ctx, engine, flags.users, flags.concurrency)

	users, err := engine.Users(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return fmt.Errorf("no users registered")
	}
	fmt.Fprintf(out, "registered %d/%d users\n", len(users), flags.users)

	if _, err := engine.Login(ctx, goAdmin.LoginForm{Username: users[0].Username, Password: "load-pass"}); err != nil {
		return err
	}
	navigateStats, err := runNavigatePhase(ctx, engine, flags.ops, flags.concurrency)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "register", registerStats)
	printStats(out, "navigate", navigateStats)
	return nil
}

func runRegisterPhase(ctx context.Context, engine *goAdmin.Engine, users, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, users)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= users {
					return
				}
				t0 := time.Now()
				err := engine.Register(ctx, goAdmin.RegisterForm{
					Username: fmt.Sprintf("user-%d", i),
					Password: "load-pass",
				})
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func runNavigatePhase(ctx context.Context, engine *goAdmin.Engine, ops, concurrency int) (phaseStats, error) {
	table, err := router.NewTable(router.DefaultRoutes())
	if err != nil {
		return phaseStats{}, err
	}
	guardCfg := router.DefaultGuardConfig()
	guardCfg.Recorder = engine
	guard, err := router.NewGuard(table, engine, guardCfg)
	if err != nil {
		return phaseStats{}, err
	}

	paths := []string{"/", "/dashboard", "/products", "/orders/delivery", "/users/roles", "/settings/profile", "/login", "/missing"}

	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := guard.Navigate(ctx, paths[r.Intn(len(paths))])
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures), nil
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
