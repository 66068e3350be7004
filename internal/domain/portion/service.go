package portion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Service maintains the per-(subject, staff) topic ledgers.
type Service struct {
	repo       Repository
	activities ActivityRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new portion service.
func NewService(repo Repository, activities ActivityRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// AddTopicRequest names the ledger and the topic to record.
type AddTopicRequest struct {
	Subject string
	Staff   string
	Topic   string
}

// List returns every ledger in store order.
func (s *Service) List(ctx context.Context) ([]Portion, error) {
	portions, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing portions")
	}
	if portions == nil {
		portions = []Portion{}
	}
	return portions, nil
}

// AddTopic records topic as completed for (subject, staff), creating the
// ledger on first use. alreadyExisted is true when the topic was already
// recorded, in which case nothing is written.
func (s *Service) AddTopic(ctx context.Context, req AddTopicRequest) (p *Portion, alreadyExisted bool, err error) {
	subject := strings.TrimSpace(req.Subject)
	staff := strings.TrimSpace(req.Staff)
	topic := strings.TrimSpace(req.Topic)
	if subject == "" || staff == "" || topic == "" {
		return nil, false, ErrInvalidInput
	}

	p, err = s.findOrCreate(ctx, subject, staff)
	if err != nil {
		return nil, false, err
	}
	if p.HasTopic(topic) {
		return p, true, nil
	}

	now := s.now()
	appended, err := s.repo.AppendTopic(ctx, p.ID, topic, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrPortionNotFound
		}
		return nil, false, errors.Wrap(err, "appending topic")
	}

	// re-read so a concurrent append of another topic is visible
	fresh, err := s.repo.Find(ctx, subject, staff)
	if err != nil {
		return nil, false, errors.Wrap(err, "reloading portion")
	}
	if !appended {
		return fresh, true, nil
	}

	s.logActivity(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeTopicAdded,
		SubjectID:    fresh.ID,
		Actor:        staff,
		Summary:      fmt.Sprintf("%s completed %q in %s", staff, topic, subject),
	})
	return fresh, false, nil
}

func (s *Service) findOrCreate(ctx context.Context, subject, staff string) (*Portion, error) {
	p, err := s.repo.Find(ctx, subject, staff)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, errors.Wrap(err, "finding portion")
	}

	now := s.now()
	p = &Portion{
		ID:              uuid.NewString(),
		Subject:         subject,
		Staff:           staff,
		CompletedTopics: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.repo.Create(ctx, p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, errors.Wrap(err, "creating portion")
	}

	s.logger.Debug("portion created concurrently, using winner",
		zap.String("subject", subject),
		zap.String("staff", staff))
	p, err = s.repo.Find(ctx, subject, staff)
	if err != nil {
		return nil, errors.Wrap(err, "finding portion after duplicate create")
	}
	return p, nil
}

func (s *Service) logActivity(ctx context.Context, entry *activity.ActivityEntry) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, entry); err != nil {
		s.logger.Warn("failed to log activity",
			zap.String("type", string(entry.ActivityType)),
			zap.Error(err))
	}
}
