package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/telemetry"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExporter struct {
	mockExporter
	mu     sync.Mutex
	events []telemetry.AttackEvent
	err    error
	block  chan struct{}
}

func (r *recordingExporter) Handle(ctx context.Context, evt telemetry.AttackEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingExporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func testRecord(source string) *attack.AttackRecord {
	v := verdict.Verdict{AttackType: verdict.AttackTypeJailbreak, Action: verdict.ActionBlock, Confidence: 0.9}
	return attack.NewRecord(source, "fp", "secret prompt", v, time.Now())
}

func TestWorker_PublishesToEveryExporter(t *testing.T) {
	first := &recordingExporter{mockExporter: mockExporter{name: "first"}}
	second := &recordingExporter{mockExporter: mockExporter{name: "second"}, err: errors.New("broker down")}
	logger, hook := test.NewNullLogger()

	worker := NewWorker(logger, []telemetry.Exporter{first, second}, 10)
	worker.StartWorkers(2)
	for i := 0; i < 5; i++ {
		worker.Publish(testRecord("u1"))
	}
	worker.Shutdown(context.Background())

	assert.Equal(t, 5, first.count())
	assert.Equal(t, 5, second.count())
	assert.Equal(t, "u1", first.events[0].SourceID)
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, second.closed)

	errorsLogged := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errorsLogged++
		}
	}
	assert.Equal(t, 5, errorsLogged)
}

func TestWorker_DropsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})
	exporter := &recordingExporter{mockExporter: mockExporter{name: "slow"}, block: block}
	logger, hook := test.NewNullLogger()

	worker := NewWorker(logger, []telemetry.Exporter{exporter}, 1)
	for i := 0; i < 3; i++ {
		worker.Publish(testRecord("u1"))
	}
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	close(block)
	worker.StartWorkers(1)
	worker.Shutdown(context.Background())
	assert.Equal(t, 1, exporter.count())
}

func TestWorker_PublishAfterShutdownIsIgnored(t *testing.T) {
	exporter := &recordingExporter{mockExporter: mockExporter{name: "e"}}
	worker := NewWorker(logrus.New(), []telemetry.Exporter{exporter}, 10)
	worker.StartWorkers(1)
	worker.Shutdown(context.Background())
	worker.Shutdown(context.Background())

	assert.NotPanics(t, func() { worker.Publish(testRecord("u1")) })
	assert.Zero(t, exporter.count())
}

func TestWorker_NoExporters(t *testing.T) {
	worker := NewWorker(logrus.New(), nil, 1)
	worker.Publish(testRecord("u1"))
	worker.Publish(testRecord("u1"))
	assert.Zero(t, len(worker.taskChan))
}
