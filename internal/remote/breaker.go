package remote

import "github.com/sony/gobreaker/v2"

// newBreaker trips once at least three calls were made and 60% failed.
func newBreaker(name string) *gobreaker.CircuitBreaker[*reply] {
	var st gobreaker.Settings
	st.Name = name
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	return gobreaker.NewCircuitBreaker[*reply](st)
}
