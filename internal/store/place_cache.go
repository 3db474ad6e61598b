package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/router-for-me/PlacesFinder/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPruneInterval = time.Hour

// PlaceCache keeps fetched place details in the database for ttl.
type PlaceCache struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewPlaceCache constructs a PlaceCache. It returns nil when db is nil.
func NewPlaceCache(db *gorm.DB, ttl time.Duration) *PlaceCache {
	if db == nil {
		return nil
	}
	return &PlaceCache{db: db, ttl: ttl, now: time.Now}
}

// Get returns a fresh cached detail, or nil when absent or stale.
func (c *PlaceCache) Get(ctx context.Context, placeID string) (*models.PlaceDetail, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, nil
	}
	var row models.PlaceDetail
	if errFind := c.db.WithContext(ctx).
		Where("place_id = ? AND fetched_at >= ?", placeID, c.cutoff()).
		Take(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("place cache: get %s: %w", placeID, errFind)
	}
	return &row, nil
}

// Put upserts a place detail, stamping FetchedAt when unset.
func (c *PlaceCache) Put(ctx context.Context, detail *models.PlaceDetail) error {
	if c == nil || c.db == nil {
		return fmt.Errorf("place cache: not initialized")
	}
	if detail == nil || strings.TrimSpace(detail.PlaceID) == "" {
		return fmt.Errorf("place cache: missing place id")
	}
	if detail.FetchedAt.IsZero() {
		detail.FetchedAt = c.now().UTC()
	}
	if errCreate := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "place_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "address", "website", "raw", "fetched_at", "updated_at"}),
	}).Create(detail).Error; errCreate != nil {
		return fmt.Errorf("place cache: put %s: %w", detail.PlaceID, errCreate)
	}
	return nil
}

// Prune deletes stale rows and returns how many were removed.
func (c *PlaceCache) Prune(ctx context.Context) (int64, error) {
	if c == nil || c.db == nil {
		return 0, fmt.Errorf("place cache: not initialized")
	}
	res := c.db.WithContext(ctx).Where("fetched_at < ?", c.cutoff()).Delete(&models.PlaceDetail{})
	if res.Error != nil {
		return 0, fmt.Errorf("place cache: prune: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// StartPruner prunes stale rows every interval until ctx is done.
func (c *PlaceCache) StartPruner(ctx context.Context, interval time.Duration) {
	if c == nil {
		return
	}
	if interval <= 0 {
		interval = defaultPruneInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, errPrune := c.Prune(ctx)
				if errPrune != nil {
					log.WithError(errPrune).Warn("place cache: prune failed")
					continue
				}
				if removed > 0 {
					log.Debugf("place cache: pruned %d stale rows", removed)
				}
			}
		}
	}()
	log.Infof("place cache pruner started (interval=%s, ttl=%s)", interval, c.ttl)
}

func (c *PlaceCache) cutoff() time.Time {
	return c.now().UTC().Add(-c.ttl)
}
