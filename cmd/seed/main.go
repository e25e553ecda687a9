// Command seed fills a running pragati service with synthetic learners and
// checks the aggregates it computes from them.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/pragati/internal/seed"
	"github.com/okian/pragati/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		students = flag.Int("students", 50, "Number of students to create")
		lessons  = flag.Int("lessons", 4, "Lessons created per lesson type")
		days     = flag.Int("days", 21, "Past days activity is spread over")
		activity = flag.Float64("activity", 0.6, "Chance a student learns on a given day")
		quizRate = flag.Float64("quiz-rate", 0.5, "Chance a completion is followed by a quiz")
		replays  = flag.Int("replays", 20, "Events resent to exercise deduplication")
		workers  = flag.Int("workers", runtime.NumCPU()*2, "Students submitted concurrently")
		timeout  = flag.Duration("timeout", 30*time.Second, "HTTP request timeout")
		wait     = flag.Duration("wait", 2*time.Minute, "Maximum wait for the service to apply events")
		seedVal  = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	_, err := seed.Run(ctx, &seed.Config{
		BaseURL:        *baseURL,
		Students:       *students,
		LessonsPerType: *lessons,
		Days:           *days,
		Activity:       *activity,
		QuizRate:       *quizRate,
		Replays:        *replays,
		Workers:        *workers,
		Timeout:        *timeout,
		Wait:           *wait,
		Seed:           *seedVal,
	}, logger.Get().Named("seed"))
	cancel()
	if err != nil {
		logger.Get().Error(context.Background(), "seed run failed", logger.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
