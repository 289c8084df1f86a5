package attack

import (
	"context"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
)

type Repository interface {
	Record(ctx context.Context, record *AttackRecord) error
	StatsSince(ctx context.Context, since time.Time) (*Stats, error)
	// Recent returns records newest first, optionally restricted to the
	// given attack types.
	Recent(ctx context.Context, limit, offset int, types ...verdict.AttackType) ([]AttackRecord, error)
	// RepeatOffenders groups records with a source since the given instant,
	// ordered by count then most recent occurrence.
	RepeatOffenders(ctx context.Context, since time.Time, minCount int) ([]Offender, error)
}
