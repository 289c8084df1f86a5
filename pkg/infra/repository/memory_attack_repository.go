package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
)

// DefaultMemoryRetention bounds the in-process ledger.
const DefaultMemoryRetention = 100000

type memoryAttackRepository struct {
	mu        sync.RWMutex
	records   []attack.AttackRecord
	retention int
}

// NewMemoryAttackRepository keeps records in timestamp order in process
// memory. Once retention is reached the oldest records are dropped.
func NewMemoryAttackRepository(retention int) attack.Repository {
	if retention <= 0 {
		retention = DefaultMemoryRetention
	}
	return &memoryAttackRepository{retention: retention}
}

func (r *memoryAttackRepository) Record(_ context.Context, record *attack.AttackRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *record
	// keep timestamp order even when a record arrives late
	i := sort.Search(len(r.records), func(i int) bool {
		return r.records[i].Timestamp.After(rec.Timestamp)
	})
	r.records = append(r.records, attack.AttackRecord{})
	copy(r.records[i+1:], r.records[i:])
	r.records[i] = rec

	if over := len(r.records) - r.retention; over > 0 {
		r.records = append([]attack.AttackRecord(nil), r.records[over:]...)
	}
	return nil
}

// since returns the index of the first record at or after t.
func (r *memoryAttackRepository) since(t time.Time) int {
	return sort.Search(len(r.records), func(i int) bool {
		return !r.records[i].Timestamp.Before(t)
	})
}

func (r *memoryAttackRepository) StatsSince(_ context.Context, since time.Time) (*attack.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &attack.Stats{
		Since:        since,
		CountsByType: make(map[verdict.AttackType]int),
	}
	for _, rec := range r.records[r.since(since):] {
		stats.CountsByType[rec.AttackType]++
		stats.Total++
		if rec.Action == verdict.ActionBlock {
			stats.Blocked++
		}
	}
	return stats, nil
}

func (r *memoryAttackRepository) Recent(_ context.Context, limit, offset int, attackTypes ...verdict.AttackType) ([]attack.AttackRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[verdict.AttackType]struct{}, len(attackTypes))
	for _, t := range attackTypes {
		wanted[t] = struct{}{}
	}

	out := make([]attack.AttackRecord, 0, limit)
	skipped := 0
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := r.records[i]
		if len(wanted) > 0 {
			if _, ok := wanted[rec.AttackType]; !ok {
				continue
			}
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memoryAttackRepository) RepeatOffenders(_ context.Context, since time.Time, minCount int) ([]attack.Offender, error) {
	r.mu.RLock()
	bySource := make(map[string]*attack.Offender)
	for _, rec := range r.records[r.since(since):] {
		if rec.SourceID == "" {
			continue
		}
		o, ok := bySource[rec.SourceID]
		if !ok {
			o = &attack.Offender{SourceID: rec.SourceID}
			bySource[rec.SourceID] = o
		}
		o.Count++
		if rec.Timestamp.After(o.LastSeen) {
			o.LastSeen = rec.Timestamp
		}
	}
	r.mu.RUnlock()

	offenders := make([]attack.Offender, 0, len(bySource))
	for _, o := range bySource {
		if o.Count >= minCount {
			offenders = append(offenders, *o)
		}
	}
	sort.Slice(offenders, func(i, j int) bool {
		if offenders[i].Count != offenders[j].Count {
			return offenders[i].Count > offenders[j].Count
		}
		if !offenders[i].LastSeen.Equal(offenders[j].LastSeen) {
			return offenders[i].LastSeen.After(offenders[j].LastSeen)
		}
		return offenders[i].SourceID < offenders[j].SourceID
	})
	return offenders, nil
}
