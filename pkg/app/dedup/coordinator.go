package dedup

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/fingerprint"
	"github.com/25thblame/prompt-shield/pkg/infra/prometheus"
	"golang.org/x/sync/singleflight"
)

// Producer computes the verdict for one fingerprint. It runs at most once
// at a time per fingerprint.
type Producer func(ctx context.Context) (verdict.Verdict, error)

type Runner interface {
	Run(ctx context.Context, fp fingerprint.Fingerprint, producer Producer) (verdict.Verdict, bool, error)
	Pending() int64
}

type Coordinator struct {
	group   singleflight.Group
	pending atomic.Int64
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Run joins the in-flight producer for fp or starts one. The producer gets
// a context that keeps ctx's values but not its cancellation, so a caller
// walking away never aborts a call other callers are waiting on. A
// canceled caller returns ctx.Err() immediately. The boolean reports
// whether the outcome was delivered to more than one caller.
func (c *Coordinator) Run(ctx context.Context, fp fingerprint.Fingerprint, producer Producer) (verdict.Verdict, bool, error) {
	c.pending.Add(1)
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fp.String(), func() (result interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("verdict producer panicked: %v", r)
			}
		}()
		return producer(detached)
	})

	select {
	case <-ctx.Done():
		go func() {
			<-ch
			c.pending.Add(-1)
		}()
		return verdict.Verdict{}, false, ctx.Err()
	case res := <-ch:
		c.pending.Add(-1)
		if res.Shared {
			prometheus.DedupShared.Inc()
		}
		if res.Err != nil {
			return verdict.Verdict{}, res.Shared, res.Err
		}
		v, ok := res.Val.(verdict.Verdict)
		if !ok {
			return verdict.Verdict{}, res.Shared, fmt.Errorf("unexpected producer result %T", res.Val)
		}
		return v, res.Shared, nil
	}
}

// Pending counts Run calls whose producer has not finished yet, including
// callers that already gave up waiting.
func (c *Coordinator) Pending() int64 {
	return c.pending.Load()
}
