package gpio

import (
	"context"
	"log"
	"time"
)

// PollEdges samples sensor every period and calls onEdge on every
// clear -> broken transition. It is the fallback when kernel edge events are
// unavailable; worst-case detection latency is one period, so period must not
// exceed the debounce window. Timestamps are measured from the call.
// PollEdges returns when ctx is cancelled.
func PollEdges(ctx context.Context, sensor Sensor, period time.Duration, onEdge EdgeFunc) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	wasClear := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clear, err := sensor.Clear()
			if err != nil {
				log.Printf("gpio: poll read error: %v", err)
				continue
			}
			if wasClear && !clear {
				onEdge(time.Since(start))
			}
			wasClear = clear
		}
	}
}
