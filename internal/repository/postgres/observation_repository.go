package postgres

import (
	"context"
	"fmt"
	"time"

	"adMarginLab/domain"

	"gorm.io/gorm"
)

// armObservationRow mirrors the hourly rollups written by the ingestion
// pipeline into arm_observations.
type armObservationRow struct {
	ID          uint      `gorm:"primaryKey"`
	EndpointID  string    `gorm:"column:endpoint_id;not null"`
	ArmID       string    `gorm:"column:arm_id;not null"`
	IsControl   bool      `gorm:"column:is_control;not null"`
	Margin      float64   `gorm:"column:margin"`
	Impressions int64     `gorm:"column:impressions"`
	Responses   int64     `gorm:"column:responses"`
	Revenue     float64   `gorm:"column:revenue"`
	Cost        float64   `gorm:"column:cost"`
	BucketStart time.Time `gorm:"column:bucket_start;index"`
}

func (armObservationRow) TableName() string {
	return "arm_observations"
}

type ObservationRepository struct {
	DB       *gorm.DB
	Lookback time.Duration
}

func NewObservationRepository(db *gorm.DB, lookbackHours int) *ObservationRepository {
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	return &ObservationRepository{
		DB:       db,
		Lookback: time.Duration(lookbackHours) * time.Hour,
	}
}

// Fetch returns the bucketed rows for the trailing lookback window, ordered
// so downstream grouping sees buckets in time order.
func (r *ObservationRepository) Fetch(ctx context.Context) ([]domain.ArmObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	since := time.Now().Add(-r.Lookback)

	var rows []armObservationRow
	err := r.DB.WithContext(ctx).
		Where("bucket_start >= ?", since).
		Order("endpoint_id, arm_id, bucket_start").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query arm_observations: %w", err)
	}

	out := make([]domain.ArmObservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ArmObservation{
			EndpointID:  row.EndpointID,
			ArmID:       row.ArmID,
			IsControl:   row.IsControl,
			Margin:      row.Margin,
			Impressions: row.Impressions,
			Responses:   row.Responses,
			Revenue:     row.Revenue,
			Cost:        row.Cost,
			BucketStart: row.BucketStart,
		})
	}

	return out, nil
}
