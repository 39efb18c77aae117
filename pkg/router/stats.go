package router

import "sync/atomic"

// Stats tracks basic request lifecycle counters for a router instance.
type Stats struct {
	requestsTotal    int64
	requestsActive   int64
	requestsReset    int64
	requestsReleased int64
}

func (s *Stats) onBegin() {
	atomic.AddInt64(&s.requestsTotal, 1)
	atomic.AddInt64(&s.requestsActive, 1)
}

func (s *Stats) onReset() {
	atomic.AddInt64(&s.requestsReset, 1)
}

func (s *Stats) onReleased() {
	atomic.AddInt64(&s.requestsReleased, 1)
}

func (s *Stats) onEnd() {
	atomic.AddInt64(&s.requestsActive, -1)
}

func (s *Stats) RequestsTotal() int64    { return atomic.LoadInt64(&s.requestsTotal) }
func (s *Stats) RequestsActive() int64   { return atomic.LoadInt64(&s.requestsActive) }
func (s *Stats) RequestsReset() int64    { return atomic.LoadInt64(&s.requestsReset) }
func (s *Stats) RequestsReleased() int64 { return atomic.LoadInt64(&s.requestsReleased) }
