package domain

import (
	"sync/atomic"
	"time"
)

var lastTimestamp int64

// Now returns the current UTC time, strictly later than any value it returned
// before in this process.
func Now() time.Time {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return time.Unix(0, now).UTC()
		}
	}
}
