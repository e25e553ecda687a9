// Command jobs runs the periodic maintenance tasks: aggregate refresh,
// inactivity alerts and summary notifications.
//
//	jobs refresh [-student id] [-parallel n]
//	jobs inactivity [-days n]
//	jobs weekly-summary
//	jobs monthly-summary
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	service "github.com/okian/pragati/internal/app"
	"github.com/okian/pragati/internal/config"
	"github.com/okian/pragati/internal/domain/types"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

// ErrUsage means the command line named no job or an unknown one.
var ErrUsage = errors.New("usage: jobs refresh|inactivity|weekly-summary|monthly-summary [flags]")

// Runner is the part of the service the jobs drive.
type Runner interface {
	RefreshStudents(ctx context.Context, ids []string, parallel int) (int, error)
	CheckInactivity(ctx context.Context, days int) (int, error)
	SendSummaries(ctx context.Context, t types.NotificationType) (int, error)
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], logger.Get())
	stop()
	_ = logger.Sync()
	switch {
	case errors.Is(err, ErrUsage), errors.Is(err, flag.ErrHelp):
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	case err != nil:
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, log logger.Logger) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	svc := service.New(cfg, service.WithLogger(log.Named("service")))
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open service: %w", err)
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			log.Warn(ctx, "close service", logger.Error(err))
		}
	}()
	return execute(ctx, svc, args, os.Stderr, log)
}

// execute parses the job name and its flags and runs it against r.
func execute(ctx context.Context, r Runner, args []string, out io.Writer, log logger.Logger) error {
	if len(args) == 0 {
		return ErrUsage
	}
	name, rest := args[0], args[1:]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)

	var job func() (int, error)
	switch name {
	case "refresh":
		student := fs.String("student", "", "refresh one student; all students when empty")
		parallel := fs.Int("parallel", 4, "students refreshed concurrently")
		job = func() (int, error) {
			var ids []string
			if *student != "" {
				ids = []string{*student}
			}
			return r.RefreshStudents(ctx, ids, *parallel)
		}
	case "inactivity":
		days := fs.Int("days", 0, "days without activity; the configured default when 0")
		job = func() (int, error) { return r.CheckInactivity(ctx, *days) }
	case "weekly-summary":
		job = func() (int, error) { return r.SendSummaries(ctx, types.NotifyWeeklySummary) }
	case "monthly-summary":
		job = func() (int, error) { return r.SendSummaries(ctx, types.NotifyMonthlySummary) }
	default:
		return fmt.Errorf("%w: unknown job %q", ErrUsage, name)
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}

	start := time.Now()
	n, err := job()
	metrics.RecordJobRun(name, err)
	if err != nil {
		log.Error(ctx, "job failed",
			logger.String("job", name),
			logger.Int("count", n),
			logger.Duration("duration", time.Since(start)),
			logger.Error(err))
		return err
	}
	log.Info(ctx, "job finished",
		logger.String("job", name),
		logger.Int("count", n),
		logger.Duration("duration", time.Since(start)))
	return nil
}
