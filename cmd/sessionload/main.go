// Command sessionload measures session store latency under concurrency.
//
// It seeds -sessions records, then runs a read phase (Get) and a rolling
// phase (Touch) against REDIS_URL, or an in-process miniredis when unset.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrEthical07/goSession/session"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		redisURL    = flag.String("redis-url", "", "redis URL; if empty, REDIS_URL env or miniredis is used")
		prefix      = flag.String("prefix", session.DefaultKeyPrefix, "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	url := *redisURL
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}
	if url == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		defer mr.Close()
		url = "redis://" + mr.Addr()
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		fmt.Printf("using redis at %s\n", url)
	}

	client := session.NewClient(url, session.Options{KeyPrefix: *prefix})
	defer client.Close()

	ids := make([]string, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := range ids {
		ids[i] = fmt.Sprintf("load-%d", i)
		if err := client.Set(ctx, buildRecord(ids[i], i), 24*time.Hour); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	get := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		_, err := client.Get(ctx, ids[r.Intn(len(ids))])
		return err
	})
	touch := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		return client.Touch(ctx, ids[r.Intn(len(ids))], 24*time.Hour)
	})

	fmt.Println("---- results ----")
	printStats("get", get)
	printStats("touch", touch)
}

// runPhase spreads ops calls of op over concurrency workers and records
// each call's latency.
func runPhase(ops, concurrency int, seed int64, op func(*rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				if err := op(r); err != nil {
					atomic.AddInt64(&failures, 1)
				}
				latencies[i] = time.Since(t0)
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
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
		return phaseStats{total: total}
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

func percentile(sorted []time.Duration, p int) time.Duration {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[(len(sorted)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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

// buildRecord makes an authenticated record with a small value bag.
func buildRecord(id string, i int) *session.Record {
	now := time.Now()
	return &session.Record{
		ID:           id,
		PrincipalRef: fmt.Sprintf("00000000-0000-4000-8000-%012d", i),
		CreatedAt:    now.Unix(),
		ExpiresAt:    now.Add(24 * time.Hour).Unix(),
		Persistent:   i%2 == 0,
		Values:       map[string]string{"returnTo": "/dashboard"},
	}
}
