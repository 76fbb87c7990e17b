package mission

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/jwebster45206/cyber-siege/internal/mission"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
