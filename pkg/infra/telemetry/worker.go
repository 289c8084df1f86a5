package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/telemetry"
	"github.com/25thblame/prompt-shield/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	DefaultQueueSize = 1000
	handleTimeout    = 10 * time.Second
)

type Publisher interface {
	Publish(record *attack.AttackRecord)
}

// Worker fans attack records out to exporters off the request path. A full
// queue drops the event.
type Worker struct {
	logger    *logrus.Logger
	exporters []telemetry.Exporter
	taskChan  chan telemetry.AttackEvent
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool
}

func NewWorker(logger *logrus.Logger, exporters []telemetry.Exporter, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Worker{
		logger:    logger,
		exporters: exporters,
		taskChan:  make(chan telemetry.AttackEvent, queueSize),
	}
}

func (w *Worker) StartWorkers(n int) {
	if n <= 0 {
		n = 1
	}
	w.logger.WithFields(logrus.Fields{
		"workers":   n,
		"exporters": len(w.exporters),
	}).Info("starting telemetry workers")
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for evt := range w.taskChan {
				w.export(evt)
			}
		}()
	}
}

func (w *Worker) Publish(record *attack.AttackRecord) {
	if len(w.exporters) == 0 || w.closed.Load() {
		return
	}
	evt := telemetry.NewAttackEvent(record)
	defer func() {
		// Shutdown may close the channel between the check and the send.
		if recover() != nil {
			prometheus.ExportTasksDropped.Inc()
		}
	}()
	select {
	case w.taskChan <- evt:
	default:
		prometheus.ExportTasksDropped.Inc()
		w.logger.WithField("attack_id", record.ID.String()).Warn("telemetry queue is full, dropping attack event")
	}
}

func (w *Worker) export(evt telemetry.AttackEvent) {
	for _, exporter := range w.exporters {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		err := exporter.Handle(ctx, evt)
		cancel()
		if err != nil {
			w.logger.WithFields(logrus.Fields{
				"exporter":  exporter.Name(),
				"attack_id": evt.ID.String(),
			}).WithError(err).Error("exporter failed")
		}
	}
}

// Shutdown stops accepting events, drains the queue and closes the
// exporters. It gives up waiting when ctx ends.
func (w *Worker) Shutdown(ctx context.Context) {
	w.closeOnce.Do(func() {
		w.logger.Info("shutting down telemetry workers")
		w.closed.Store(true)
		close(w.taskChan)

		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			w.logger.WithError(ctx.Err()).Warn("telemetry drain interrupted")
		}
		for _, exporter := range w.exporters {
			exporter.Close()
		}
		w.logger.Info("telemetry workers stopped")
	})
}
