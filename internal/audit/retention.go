package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MinRetentionDays is the shortest retention a purge may be configured with.
const MinRetentionDays = 90

func CheckRetentionPolicy(days int) error {
	if days < MinRetentionDays {
		return fmt.Errorf("retention must be at least %d days (requested: %d)", MinRetentionDays, days)
	}
	return nil
}

// PurgeCutoff returns the instant before which entries may be removed.
func PurgeCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// Purge removes entries older than the retention window.
func (s *Service) Purge(ctx context.Context, days int) (int64, error) {
	if err := CheckRetentionPolicy(days); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteBefore(ctx, PurgeCutoff(time.Now().UTC(), days))
	if err != nil {
		return 0, fmt.Errorf("purge activity logs: %w", err)
	}
	if n > 0 {
		s.log.Info("activity logs purged", zap.Int64("rows", n), zap.Int("retention_days", days))
	}
	return n, nil
}

// StartRetention purges once a day until ctx ends. days <= 0 disables it.
func (s *Service) StartRetention(ctx context.Context, days int) {
	if days <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			if _, err := s.Purge(ctx, days); err != nil {
				s.log.Error("activity log purge failed", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
