// internal/domain/subscriber/service.go
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Welcomer sends the welcome message to a new subscriber.
type Welcomer interface {
	SendWelcomeEmail(ctx context.Context, to string) error
}

// Outcome tells a new subscription apart from a reactivated one.
type Outcome int

const (
	Created Outcome = iota
	Reactivated
)

// Service handles newsletter subscriptions
type Service struct {
	db       *gorm.DB
	welcomer Welcomer
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewService(db *gorm.DB, welcomer Welcomer, logger logrus.FieldLogger) *Service {
	return &Service{db: db, welcomer: welcomer, logger: logger, now: time.Now}
}

// Subscribe registers email or reactivates a lapsed subscription. Welcome
// email failures are logged, never returned.
func (s *Service) Subscribe(ctx context.Context, email string) (*Subscriber, Outcome, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, 0, apperror.Validation("email is required")
	}
	if !ValidEmail(email) {
		return nil, 0, apperror.Validation("please enter a valid email")
	}

	now := s.now().UTC()
	var (
		sub     Subscriber
		outcome Outcome
	)
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error
	switch {
	case err == nil && sub.Subscribed:
		return nil, 0, apperror.Validation("this email is already subscribed")
	case err == nil:
		sub.Subscribed = true
		sub.SubscribedAt = now
		if err := s.db.WithContext(ctx).Save(&sub).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to reactivate subscriber: %w", err)
		}
		outcome = Reactivated
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = Subscriber{Email: email, Subscribed: true, SubscribedAt: now}
		if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
			if apperror.IsUniqueViolation(err) {
				return nil, 0, apperror.Validation("this email is already subscribed")
			}
			return nil, 0, fmt.Errorf("failed to create subscriber: %w", err)
		}
		outcome = Created
	default:
		return nil, 0, fmt.Errorf("failed to look up subscriber: %w", err)
	}

	s.welcome(ctx, email)
	return &sub, outcome, nil
}

// Unsubscribe marks the address inactive.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	result := s.db.WithContext(ctx).Model(&Subscriber{}).
		Where("email = ? AND subscribed = ?", email, true).
		Update("subscribed", false)
	if result.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("subscriber", email)
	}
	return nil
}

func (s *Service) welcome(ctx context.Context, email string) {
	if s.welcomer == nil {
		return
	}
	log := s.logger.WithField("email", email)
	if err := s.welcomer.SendWelcomeEmail(ctx, email); err != nil {
		log.WithError(err).Warn("failed to send welcome email")
		return
	}
	log.Info("welcome email sent")
}
