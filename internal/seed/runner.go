package seed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pragati/pkg/logger"
)

// ErrInconsistent is returned when verification found violations.
var ErrInconsistent = errors.New("aggregates inconsistent with submitted events")

const statsPollInterval = 200 * time.Millisecond

// Run registers the plan's catalog, submits its events with cfg.Workers
// students in flight, waits for the service to apply them and verifies the
// resulting aggregates.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	start := time.Now()
	plan := Generate(cfg, start)
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	stats := &Stats{
		Lessons:         len(plan.Lessons),
		Students:        len(plan.Students),
		EventsGenerated: plan.Total(),
	}

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("students", cfg.Students),
		logger.Int("lessons", stats.Lessons),
		logger.Int("events", stats.EventsGenerated),
		logger.Int("workers", cfg.Workers))

	if err := client.GetJSON(ctx, "/readyz", nil); err != nil {
		return stats, fmt.Errorf("service not ready: %w", err)
	}
	if err := register(ctx, client, plan); err != nil {
		return stats, fmt.Errorf("register catalog: %w", err)
	}

	before, err := applied(ctx, client)
	if err != nil {
		return stats, err
	}
	submit(ctx, client, plan, cfg.Workers, stats)
	replay(ctx, client, plan, cfg.Replays, stats)
	log.Info(ctx, "events submitted",
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("retried", stats.EventsRetried),
		logger.Int("failed", stats.EventsFailed))

	if err := waitApplied(ctx, client, before+int64(stats.EventsAccepted), cfg.Wait); err != nil {
		return stats, err
	}

	stats.Violations, err = verify(ctx, client, plan)
	if err != nil {
		return stats, fmt.Errorf("verify: %w", err)
	}
	stats.StudentsVerified = len(plan.Students)
	stats.Duration = time.Since(start)

	log.Info(ctx, "seed run finished",
		logger.Int("studentsVerified", stats.StudentsVerified),
		logger.Int("violations", len(stats.Violations)),
		logger.Duration("duration", stats.Duration))
	for _, v := range stats.Violations {
		log.Warn(ctx, "consistency violation", logger.String("detail", v))
	}
	if len(stats.Violations) > 0 {
		return stats, fmt.Errorf("%w: %d violations", ErrInconsistent, len(stats.Violations))
	}
	return stats, nil
}

func register(ctx context.Context, c *Client, p *Plan) error {
	for _, l := range p.Lessons {
		if err := c.mustCreate(ctx, "/lessons", l); err != nil {
			return err
		}
	}
	for _, pa := range p.Parents {
		if err := c.mustCreate(ctx, "/parents", pa); err != nil {
			return err
		}
	}
	for _, st := range p.Students {
		if err := c.mustCreate(ctx, "/students", st); err != nil {
			return err
		}
	}
	return nil
}

// submit posts every student's events in order. Students run concurrently,
// at most workers at a time.
func submit(ctx context.Context, c *Client, p *Plan, workers int, stats *Stats) {
	var accepted, duplicate, retried, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, st := range p.Students {
		events := p.Events[st.ID]
		g.Go(func() error {
			for _, e := range events {
				res, retries := c.submit(gctx, e)
				retried.Add(int64(retries))
				switch res {
				case outcomeAccepted:
					accepted.Add(1)
				case outcomeDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.EventsAccepted += int(accepted.Load())
	stats.EventsDuplicate += int(duplicate.Load())
	stats.EventsRetried += int(retried.Load())
	stats.EventsFailed += int(failed.Load())
}

// replay resends the first n events; each must come back as a duplicate.
func replay(ctx context.Context, c *Client, p *Plan, n int, stats *Stats) {
	for _, st := range p.Students {
		for _, e := range p.Events[st.ID] {
			if n <= 0 {
				return
			}
			n--
			res, retries := c.submit(ctx, e)
			stats.EventsRetried += retries
			switch res {
			case outcomeDuplicate:
				stats.EventsDuplicate++
			case outcomeAccepted:
				stats.EventsAccepted++
				stats.Violations = append(stats.Violations, fmt.Sprintf("replayed event %s was accepted again", e.EventID))
			default:
				stats.EventsFailed++
			}
		}
	}
}

type serviceStats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// applied is how many events the service workers have finished, ok or not.
func applied(ctx context.Context, c *Client) (int64, error) {
	var s serviceStats
	if err := c.GetJSON(ctx, "/stats", &s); err != nil {
		return 0, err
	}
	return s.Processed + s.Failed, nil
}

func waitApplied(ctx context.Context, c *Client, target int64, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		n, err := applied(ctx, c)
		if err != nil {
			return err
		}
		if n >= target {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for events: %d of %d applied", n, target)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(statsPollInterval):
		}
	}
}
