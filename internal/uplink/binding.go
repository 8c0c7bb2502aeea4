package uplink

import (
	"strings"

	"github.com/stationside/wxuplink/internal/station"
)

// defaultBinding feeds archive records only; loop packets must be
// opted into.
const defaultBinding = "archive"

// BindTo subscribes the worker to the station event streams named in
// the destination's binding set ("loop", "archive", or both).
//
// Each handler clones the event's record, stamps the binding, and
// offers it to the queue without blocking: a full queue is the worker's
// backlog problem, never the event producer's.
func (w *Worker) BindTo(d *station.Dispatcher) {
	binding := w.cfg.Binding
	if binding == "" {
		binding = defaultBinding
	}

	if strings.Contains(binding, "loop") {
		d.Bind(station.NewLoopPacket, w.bindingHandler(station.BindingLoop))
	}
	if strings.Contains(binding, "archive") {
		d.Bind(station.NewArchiveRecord, w.bindingHandler(station.BindingArchive))
	}
}

// bindingHandler builds the event handler for one stream.
func (w *Worker) bindingHandler(b station.Binding) station.Handler {
	return func(ev station.Event) {
		rec := ev.Record.Clone()
		rec.Binding = b
		if !w.Enqueue(rec) {
			w.log.Debug("queue full, record not enqueued", "binding", b)
		}
	}
}
