package observability

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type scrapeErrorLogger struct {
	logger zerolog.Logger
}

func (l scrapeErrorLogger) Println(v ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprint(v...))
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber. A collector
// that fails to gather is logged and skipped so the rest of the scrape survives.
func MetricsHandler(logger zerolog.Logger) fiber.Handler {
	RegisterMetrics()
	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:      scrapeErrorLogger{logger: logger.With().Str("component", "metrics").Logger()},
		ErrorHandling: promhttp.ContinueOnError,
	})
	return adaptor.HTTPHandler(handler)
}
