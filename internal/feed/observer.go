package feed

import "time"

// Observer receives composition events. Implementations must be safe for
// concurrent use.
type Observer interface {
	CacheHit()
	CacheMiss()
	OracleFailure()
	OracleDuration(d time.Duration)
	Composed(ranked bool)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) CacheHit()                    {}
func (NopObserver) CacheMiss()                   {}
func (NopObserver) OracleFailure()               {}
func (NopObserver) OracleDuration(time.Duration) {}
func (NopObserver) Composed(bool)                {}
