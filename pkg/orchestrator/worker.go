package orchestrator

import (
	"context"
	"sync"
)

// Worker validates the shipments received on its channel until the channel
// is closed.
type Worker struct {
	id int
	ch <-chan string
	o  *Orchestrator
}

func NewWorker(id int, ch <-chan string, o *Orchestrator) Worker {
	return Worker{id: id, ch: ch, o: o}
}

func (w *Worker) do(ctx context.Context, shipmentID string) {
	log.Debugf("[W%d]: validating %s", w.id, shipmentID)

	result, err := w.o.ValidateShipmentDocuments(ctx, shipmentID)
	if err != nil {
		log.Errorf("[W%d]: %s cannot be validated: %v", w.id, shipmentID, err)
		return
	}

	log.Debugf("[W%d]: done validating %s: %s", w.id, shipmentID, result.Status)
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	if w.o == nil {
		log.Errorf("unable to start worker %d: orchestrator is nil", w.id)
		return
	}
	for id := range w.ch {
		w.do(ctx, id)
	}
	log.Debugf("[W%d]: done processing all", w.id)
}

// RunPool validates every shipment received on ch with n workers and
// returns once ch is closed and drained.
func RunPool(ctx context.Context, o *Orchestrator, n int, ch <-chan string) {
	if n <= 0 {
		n = 1
	}
	wg := sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		w := NewWorker(i, ch, o)
		go w.Start(ctx, &wg)
	}
	wg.Wait()
}
