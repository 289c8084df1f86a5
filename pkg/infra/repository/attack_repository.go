package repository

import (
	"context"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain"
	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/database/types"
	"gorm.io/gorm"
)

const storePostgres = "postgres"

type attackRepository struct {
	db *gorm.DB
}

func NewAttackRepository(db *gorm.DB) attack.Repository {
	return &attackRepository{
		db: db,
	}
}

func (r *attackRepository) Record(ctx context.Context, record *attack.AttackRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return domain.NewStoreError(storePostgres, err)
	}
	return nil
}

func (r *attackRepository) StatsSince(ctx context.Context, since time.Time) (*attack.Stats, error) {
	type row struct {
		AttackType verdict.AttackType
		Action     verdict.Action
		Count      int
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&attack.AttackRecord{}).
		Select("attack_type, action, COUNT(*) AS count").
		Where("timestamp >= ?", since).
		Group("attack_type, action").
		Scan(&rows).Error; err != nil {
		return nil, domain.NewStoreError(storePostgres, err)
	}

	stats := &attack.Stats{
		Since:        since,
		CountsByType: make(map[verdict.AttackType]int),
	}
	for _, rw := range rows {
		stats.CountsByType[rw.AttackType] += rw.Count
		stats.Total += rw.Count
		if rw.Action == verdict.ActionBlock {
			stats.Blocked += rw.Count
		}
	}
	return stats, nil
}

func (r *attackRepository) Recent(ctx context.Context, limit, offset int, attackTypes ...verdict.AttackType) ([]attack.AttackRecord, error) {
	query := r.db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if len(attackTypes) > 0 {
		query = query.Where("attack_type = ANY(?)", types.AttackTypeArray(attackTypes))
	}
	var records []attack.AttackRecord
	if err := query.Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, domain.NewStoreError(storePostgres, err)
	}
	return records, nil
}

func (r *attackRepository) RepeatOffenders(ctx context.Context, since time.Time, minCount int) ([]attack.Offender, error) {
	var offenders []attack.Offender
	if err := r.db.WithContext(ctx).
		Model(&attack.AttackRecord{}).
		Select("source_id, COUNT(*) AS count, MAX(timestamp) AS last_seen").
		Where("timestamp >= ? AND source_id <> ''", since).
		Group("source_id").
		Having("COUNT(*) >= ?", minCount).
		Order("count DESC, last_seen DESC").
		Scan(&offenders).Error; err != nil {
		return nil, domain.NewStoreError(storePostgres, err)
	}
	return offenders, nil
}
