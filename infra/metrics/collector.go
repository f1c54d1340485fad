package metrics

import (
	"context"

	"github.com/kilianp07/cmapd/core/events"
	coremetrics "github.com/kilianp07/cmapd/core/metrics"
	"github.com/kilianp07/cmapd/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards search
// progress to sinks implementing coremetrics.SearchProgressRecorder. It
// stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.SearchProgressRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.SearchEvent:
					_ = rec.RecordSearchProgress(coremetrics.SearchProgress{
						RunID: e.RunID, Phase: string(e.Phase), Makespan: e.Makespan, Upper: e.Upper, Time: e.Time,
					})
				case events.AttemptEvent:
					_ = rec.RecordSearchProgress(coremetrics.SearchProgress{
						RunID: e.RunID, Phase: "attempt", Makespan: e.Makespan, Time: e.Time,
					})
				}
			}
		}
	}()
	return done
}
