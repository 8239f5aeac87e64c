// Command seed bulk-loads links into postgres for load testing the resolve path.
// Aliases are deterministic ("seed-0000001", ...) so a load generator can address
// them; every n-th row is written already expired.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notas4int/url-cutter/internal/config"
	"github.com/notas4int/url-cutter/internal/logger"
	"github.com/notas4int/url-cutter/internal/repository/postgres"
)

const (
	batchSize  = 5000
	numWorkers = 4

	insertLinkQuery = `
		INSERT INTO links (original_url, alias, short_url, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`
)

type Seeder struct {
	pool         *pgxpool.Pool
	domain       string
	expiredEvery int
	now          time.Time
}

func main() {
	count := flag.Int("count", 100000, "number of links to insert")
	expiredEvery := flag.Int("expired-every", 10, "write every n-th link already expired, 0 disables")
	truncate := flag.Bool("truncate", false, "remove existing links first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	log := logger.Get()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Error("Failed to migrate", "error", err)
		os.Exit(1)
	}

	if *truncate {
		if _, err := pool.Exec(ctx, "TRUNCATE links RESTART IDENTITY"); err != nil {
			log.Error("Failed to clear links", "error", err)
			os.Exit(1)
		}
	}

	seeder := &Seeder{
		pool:         pool,
		domain:       cfg.Service.Domain,
		expiredEvery: *expiredEvery,
		now:          time.Now().UTC(),
	}

	start := time.Now()
	if err := seeder.Run(ctx, *count); err != nil {
		log.Error("Seeding failed", "error", err)
		os.Exit(1)
	}

	log.Info("Seeding completed",
		slog.Int("count", *count),
		slog.Duration("duration", time.Since(start)),
	)
}

// Run inserts rows 1..total split evenly across the workers.
func (s *Seeder) Run(ctx context.Context, total int) error {
	var wg sync.WaitGroup
	ranges := splitRange(total, numWorkers)
	errChan := make(chan error, len(ranges))

	for id, r := range ranges {
		wg.Add(1)
		go func(id, start, end int) {
			defer wg.Done()

			if err := s.insertRange(ctx, start, end); err != nil {
				errChan <- fmt.Errorf("worker %d failed: %w", id, err)
			}
		}(id, r[0], r[1])
	}

	wg.Wait()
	close(errChan)

	return collectErrors(errChan)
}

func collectErrors(errChan <-chan error) error {
	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Seeder) insertRange(ctx context.Context, start, end int) error {
	for i := start; i <= end; i += batchSize {
		batchEnd := min(i+batchSize-1, end)

		batch := s.newBatch(i, batchEnd)
		br := s.pool.SendBatch(ctx, batch)
		for k := 0; k < batch.Len(); k++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch exec failed: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	return nil
}

func (s *Seeder) newBatch(start, end int) *pgx.Batch {
	batch := &pgx.Batch{}

	for i := start; i <= end; i++ {
		alias := fmt.Sprintf("seed-%07d", i)

		var expiresAt *time.Time
		if s.expired(i) {
			t := s.now.Add(-time.Hour)
			expiresAt = &t
		}

		batch.Queue(insertLinkQuery,
			fmt.Sprintf("https://example.com/page/%07d", i),
			alias,
			"http://"+s.domain+"/"+alias,
			expiresAt,
			s.now.Add(-time.Duration(i)*time.Second),
		)
	}

	return batch
}

func (s *Seeder) expired(i int) bool {
	return s.expiredEvery > 0 && i%s.expiredEvery == 0
}

// splitRange splits 1..total into at most workers inclusive ranges.
func splitRange(total, workers int) [][2]int {
	if total <= 0 {
		return nil
	}
	if workers > total {
		workers = total
	}

	perWorker := total / workers
	ranges := make([][2]int, 0, workers)
	for w := 0; w < workers; w++ {
		start := w*perWorker + 1
		end := start + perWorker - 1
		if w == workers-1 {
			end = total
		}
		ranges = append(ranges, [2]int{start, end})
	}

	return ranges
}
