package postgres

import (
	"context"
	"fmt"

	"adMarginLab/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EndpointConfigRepository struct {
	DB *gorm.DB
}

func NewEndpointConfigRepository(db *gorm.DB) *EndpointConfigRepository {
	return &EndpointConfigRepository{DB: db}
}

func (r *EndpointConfigRepository) GetConfig(ctx context.Context, endpointID string) (domain.EndpointConfig, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.EndpointConfig{}, false, fmt.Errorf("context error: %w", err)
	}

	var cfg domain.EndpointConfig
	err := r.DB.WithContext(ctx).First(&cfg, "endpoint_id = ?", endpointID).Error
	if err == gorm.ErrRecordNotFound {
		return domain.EndpointConfig{}, false, nil
	}
	if err != nil {
		return domain.EndpointConfig{}, false, fmt.Errorf("failed to query endpoint_configs: %w", err)
	}

	return cfg, true, nil
}

func (r *EndpointConfigRepository) UpsertConfig(ctx context.Context, cfg domain.EndpointConfig) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint_id"}},
			UpdateAll: true,
		},
	).Create(&cfg).Error; err != nil {
		return fmt.Errorf("failed to upsert endpoint_configs: %w", err)
	}

	return nil
}
