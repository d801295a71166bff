package services

import (
	"io"

	"github.com/paulmach/orb"

	"flood-platform/internal/models"
	"flood-platform/pkg/logging"
	"flood-platform/pkg/metrics"
)

// Shared test fixtures. The metrics collector registers on the global
// prometheus registry, so it is created exactly once per test binary.
var (
	testMetrics = metrics.NewCollector("flood_platform_test")
	testLogger  = newTestLogger()
)

func newTestLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

// squareCatchment is a 1000x1000 m catchment with four boundary segments:
// 1 south, 2 east, 3 north, 4 west.
func squareCatchment() models.CatchmentArea {
	return models.CatchmentArea{
		Polygon: orb.Polygon{orb.Ring{
			{0, 0}, {1000, 0}, {1000, 1000}, {0, 1000}, {0, 0},
		}},
		CRS: 2193,
	}
}
