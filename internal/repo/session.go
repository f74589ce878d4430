package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/docshelf/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return wrap(r.DB.WithContext(ctx).Create(s).Error, "session")
}

func (r *GormRepo) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&s).Error; err != nil {
		return nil, wrap(err, "session")
	}
	return &s, nil
}

// DeleteSessionByTokenHash is a no-op when no row matches.
func (r *GormRepo) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return wrap(r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.Session{}).Error, "session")
}

func (r *GormRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if res.Error != nil {
		return 0, wrap(res.Error, "session")
	}
	return res.RowsAffected, nil
}
