package work

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

// DefaultAddedBy is recorded when a work is created without an author.
const DefaultAddedBy = "Admin"

// maxStatusAttempts bounds the compare-and-swap loop in SetStatus.
const maxStatusAttempts = 5

// Service handles work business logic.
type Service struct {
	works      Repository
	activities ActivityRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new work service.
func NewService(works Repository, activities ActivityRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		works:      works,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateRequest describes a work creation request.
type CreateRequest struct {
	Subject     string
	Description string
	Deadline    string
	AddedBy     string
	FileURL     string
}

// SetStatusRequest describes a user's status change on a work.
type SetStatusRequest struct {
	WorkID   string
	UserID   string
	Username string
	State    string
}

// Create creates a new work with an empty status list and zero counts.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Work, error) {
	subject := strings.TrimSpace(req.Subject)
	description := strings.TrimSpace(req.Description)
	deadline := strings.TrimSpace(req.Deadline)
	if subject == "" || description == "" || deadline == "" {
		return nil, ErrInvalidInput
	}
	if _, err := time.Parse(DeadlineLayout, deadline); err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "deadline %q", deadline)
	}

	addedBy := strings.TrimSpace(req.AddedBy)
	if addedBy == "" {
		addedBy = DefaultAddedBy
	}

	w := &Work{
		ID:          uuid.NewString(),
		Subject:     subject,
		Description: description,
		Deadline:    deadline,
		AddedBy:     addedBy,
		FileURL:     strings.TrimSpace(req.FileURL),
		CreatedAt:   s.now(),
		Status:      []StatusEntry{},
	}

	if err := s.works.Create(ctx, w); err != nil {
		return nil, errors.Wrap(err, "creating work")
	}

	s.logActivity(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeWorkCreated,
		SubjectID:    w.ID,
		Actor:        w.AddedBy,
		Summary:      fmt.Sprintf("added %s work %q due %s", w.Subject, w.Description, w.Deadline),
	})

	return w, nil
}

// Get fetches a work by ID.
func (s *Service) Get(ctx context.Context, id string) (*Work, error) {
	w, err := s.works.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkNotFound
		}
		return nil, errors.Wrap(err, "getting work")
	}
	return w, nil
}

// List returns every work, newest first, with totals computed from the same scan.
func (s *Service) List(ctx context.Context) ([]Work, Totals, error) {
	works, err := s.works.List(ctx)
	if err != nil {
		return nil, Totals{}, errors.Wrap(err, "listing works")
	}
	if works == nil {
		works = []Work{}
	}
	return works, SumTotals(works), nil
}

// Summary recomputes global totals by rescanning every stored work.
func (s *Service) Summary(ctx context.Context) (Totals, error) {
	works, err := s.works.List(ctx)
	if err != nil {
		return Totals{}, errors.Wrap(err, "computing totals")
	}
	return SumTotals(works), nil
}

// SetStatus upserts the user's entry in the work's status list, recounts the
// work and returns it together with fresh global totals.
func (s *Service) SetStatus(ctx context.Context, req SetStatusRequest) (*Work, Totals, error) {
	state, err := ParseState(req.State)
	if err != nil {
		return nil, Totals{}, err
	}
	userID := strings.TrimSpace(req.UserID)
	username := strings.TrimSpace(req.Username)
	if strings.TrimSpace(req.WorkID) == "" || userID == "" || username == "" {
		return nil, Totals{}, ErrInvalidInput
	}

	for attempt := 1; attempt <= maxStatusAttempts; attempt++ {
		current, err := s.Get(ctx, req.WorkID)
		if err != nil {
			return nil, Totals{}, err
		}

		updated := *current
		updated.Status = UpsertStatus(current.Status, userID, username, state, s.now())
		updated.Counts = Recount(updated.Status)
		updated.Version = current.Version + 1

		err = s.works.Update(ctx, &updated, current.Version)
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Debug("status write lost race, retrying",
				zap.String("work_id", req.WorkID),
				zap.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Totals{}, ErrWorkNotFound
		}
		if err != nil {
			return nil, Totals{}, errors.Wrap(err, "updating work status")
		}

		s.logActivity(ctx, &activity.ActivityEntry{
			ActivityType: activity.TypeWorkStatusSet,
			SubjectID:    updated.ID,
			Actor:        username,
			Summary:      fmt.Sprintf("%s marked %q as %s", username, updated.Description, state),
		})

		totals, err := s.Summary(ctx)
		if err != nil {
			return nil, Totals{}, err
		}
		return &updated, totals, nil
	}

	return nil, Totals{}, ErrConflict
}

// Delete removes a work and returns totals over the remaining works.
func (s *Service) Delete(ctx context.Context, id, actor string) (Totals, error) {
	if strings.TrimSpace(id) == "" {
		return Totals{}, ErrInvalidInput
	}
	if err := s.works.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Totals{}, ErrWorkNotFound
		}
		return Totals{}, errors.Wrap(err, "deleting work")
	}

	s.logActivity(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeWorkDeleted,
		SubjectID:    id,
		Actor:        actor,
		Summary:      fmt.Sprintf("deleted work %s", id),
	})

	return s.Summary(ctx)
}

// Reconcile recounts every work from its status list and persists the ones
// whose stored counts drifted. It returns how many works were repaired.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	works, err := s.works.List(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "listing works")
	}

	fixed := 0
	for i := range works {
		current := works[i]
		counts := Recount(current.Status)
		if counts == current.Counts {
			continue
		}

		updated := current
		updated.Counts = counts
		updated.Version = current.Version + 1
		err := s.works.Update(ctx, &updated, current.Version)
		if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
			// a concurrent writer already recounted or removed it
			continue
		}
		if err != nil {
			return fixed, errors.Wrapf(err, "reconciling work %s", current.ID)
		}

		s.logger.Info("repaired drifted work counts",
			zap.String("work_id", current.ID),
			zap.Any("stored", current.Counts),
			zap.Any("recounted", counts))
		fixed++
	}
	return fixed, nil
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
