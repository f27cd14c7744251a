package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock reports the current time. Services take it instead of calling time.Now
// so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
