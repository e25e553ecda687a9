package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/pragati/internal/adapters/repository/repotest"
	service "github.com/okian/pragati/internal/app"
	"github.com/okian/pragati/internal/config"
	"github.com/okian/pragati/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("PRAGATI_ADDR", ":8080")
			_ = os.Setenv("PRAGATI_QUEUE_SIZE", "1000")
			_ = os.Setenv("PRAGATI_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("PRAGATI_ADDR")
				_ = os.Unsetenv("PRAGATI_QUEUE_SIZE")
				_ = os.Unsetenv("PRAGATI_WORKER_COUNT")
			}()

			convey.Convey("Then it is loaded", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the HTTP app is built over a started service", func() {
			ctx := context.Background()
			cfg := config.New(ctx)
			cfg.WorkerCount = 2
			cfg.EventQueueSize = 16
			svc := service.New(cfg,
				service.WithLogger(logger.NewNop()),
				service.WithStore(repotest.Store(t)))
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			app := newHTTPApp(svc, logger.NewNop())

			convey.Convey("Then the index, docs and API routes answer", func() {
				for _, path := range []string{"/", "/docs", "/openapi.yaml", "/readyz", "/stats", "/students/ravi/streak"} {
					resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, http.NoBody), -1)
					convey.So(err, convey.ShouldBeNil)
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
					_ = resp.Body.Close()
				}
			})

			convey.Convey("And the service metrics updater reads its stats", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)

		convey.Convey("When its context is canceled it returns", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			cancel()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
