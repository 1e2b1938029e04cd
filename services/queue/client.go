// Package queue runs the background job queue on the application database
package queue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Config sizes the queue client
type Config struct {
	DSN        string
	MaxWorkers int
}

// Queue owns the pgx pool and river client. River's tables are created by
// cmd/migrate.
type Queue struct {
	pool   *pgxpool.Pool
	client *river.Client[pgx.Tx]
}

// New connects and registers every worker; call Start to begin working jobs
func New(ctx context.Context, cfg Config, deliverer WelcomeDeliverer) (*Queue, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach queue database: %w", err)
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewWelcomeEmailWorker(deliverer))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueNotifications: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}

	return &Queue{pool: pool, client: client}, nil
}

func (q *Queue) Start(ctx context.Context) error {
	if err := q.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start river client: %w", err)
	}
	log.Infow("[Queue] river client started", "queue", QueueNotifications)
	return nil
}

// Notifier returns the billing.WelcomeNotifier backed by this queue
func (q *Queue) Notifier() *RiverNotifier {
	return NewRiverNotifier(q.client)
}

// Stop waits for running jobs, then closes the pool
func (q *Queue) Stop(ctx context.Context) error {
	err := q.client.Stop(ctx)
	q.pool.Close()
	return err
}
