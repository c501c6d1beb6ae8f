package circuitbreaker

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// Settings controls when the breaker opens. It trips once at least
// MinRequests calls were seen in the current window and the failure ratio
// reaches FailureRatio, and stays open for OpenTimeout.
type Settings struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
}

var DefaultSettings = Settings{
	MinRequests:  3,
	FailureRatio: 0.6,
	OpenTimeout:  30 * time.Second,
}

// CreateCircuitBreaker guards calls returning a byte count, like broker
// writes.
func CreateCircuitBreaker(name string, settings Settings) *gobreaker.CircuitBreaker[int] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = settings.OpenTimeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.Requests < settings.MinRequests {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return failureRatio >= settings.FailureRatio
	}
	st.OnStateChange = func(name string, from gobreaker.State, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
	}

	return gobreaker.NewCircuitBreaker[int](st)
}
