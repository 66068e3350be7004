package material

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultSubject    = "General"
	DefaultUploadedBy = "Anonymous"
)

// Service manages the material catalogue.
type Service struct {
	repo       Repository
	activities ActivityRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new material service.
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

// CreateRequest describes a material to publish.
type CreateRequest struct {
	Link        string
	DisplayName string
	Subject     string
	Format      string
	UploadedBy  string
}

// Create publishes a material, filling defaults derived from the link.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Material, error) {
	link := strings.TrimSpace(req.Link)
	if link == "" {
		return nil, ErrInvalidInput
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(ErrInvalidInput, "link %q", link)
	}

	base := path.Base(u.Path)
	if base == "/" || base == "." {
		base = u.Host
	}

	m := &Material{
		ID:          uuid.NewString(),
		Link:        link,
		DisplayName: orDefault(req.DisplayName, base),
		Subject:     orDefault(req.Subject, DefaultSubject),
		Format:      orDefault(req.Format, formatOf(base)),
		UploadDate:  s.now(),
		UploadedBy:  orDefault(req.UploadedBy, DefaultUploadedBy),
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, errors.Wrap(err, "creating material")
	}

	if s.activities != nil {
		entry := &activity.ActivityEntry{
			ActivityType: activity.TypeMaterialAdded,
			SubjectID:    m.ID,
			Actor:        m.UploadedBy,
			Summary:      fmt.Sprintf("%s shared %q for %s", m.UploadedBy, m.DisplayName, m.Subject),
		}
		if err := s.activities.Log(ctx, entry); err != nil {
			s.logger.Warn("failed to log activity", zap.Error(err))
		}
	}
	return m, nil
}

// List returns the catalogue, newest first.
func (s *Service) List(ctx context.Context) ([]Material, error) {
	materials, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing materials")
	}
	if materials == nil {
		materials = []Material{}
	}
	return materials, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func formatOf(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return "link"
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
