package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"creditgw/internal/audit"
)

// Worker periodically trims the credit log down to audit.MaxEntries.
type Worker struct {
	sink      audit.Sink
	pollEvery time.Duration
	keep      int
}

func NewWorker(sink audit.Sink) *Worker {
	return &Worker{sink: sink, pollEvery: 5 * time.Minute, keep: audit.MaxEntries}
}

// WithInterval overrides the trim interval; non-positive values are ignored.
func (w *Worker) WithInterval(d time.Duration) *Worker {
	if d > 0 {
		w.pollEvery = d
	}
	return w
}

func (w *Worker) Run(ctx context.Context) {
	log.Info().Dur("every", w.pollEvery).Int("keep", w.keep).Msg("retention worker: started")
	t := time.NewTicker(w.pollEvery)
	defer t.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("retention worker: stopping")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if err := w.sink.Trim(ctx, w.keep); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("retention worker: trim failed")
	}
}
