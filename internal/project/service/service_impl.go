package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mantodeus/mantodeus-manager/internal/clock"
	"github.com/mantodeus/mantodeus-manager/internal/project/domain"
	"github.com/mantodeus/mantodeus-manager/pkg/db/option"
	"github.com/mantodeus/mantodeus-manager/pkg/repository"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	store repository.Repository[domain.Project]
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("project.service"),
		genID: p.GenID,
		clock: p.Clock,
		store: repository.ProvideStore[domain.Project](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	if req.UserID == 0 {
		return domain.Project{}, domain.ErrInvalidUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	project := domain.Project{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		ContactID:   req.ContactID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      domain.ProjectActive,
		StartedAt:   &now,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, &project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *Service) GetByID(ctx context.Context, userID int64, id snowflake.ID) (domain.Project, error) {
	if userID == 0 {
		return domain.Project{}, domain.ErrInvalidUser
	}
	project, err := s.store.FindOne(ctx, &domain.Project{ID: id, UserID: userID})
	if err != nil {
		return domain.Project{}, err
	}
	if project == nil {
		return domain.Project{}, domain.ErrNotFound
	}
	return *project, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProjectRequest) (domain.Project, error) {
	project, err := s.GetByID(ctx, req.UserID, req.ProjectID)
	if err != nil {
		return domain.Project{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Project{}, domain.ErrInvalidName
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.ContactID != nil {
		project.ContactID = req.ContactID
	}
	if req.Status != nil {
		switch *req.Status {
		case domain.ProjectActive, domain.ProjectOnHold:
			project.CompletedAt = nil
		case domain.ProjectCompleted:
			now := s.clock.Now()
			project.CompletedAt = &now
		default:
			return domain.Project{}, domain.ErrInvalidStatus
		}
		project.Status = *req.Status
	}

	project.UpdatedAt = s.clock.Now()
	if err := s.store.Update(ctx, project.ID.String(), &project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *Service) Delete(ctx context.Context, userID int64, id snowflake.ID) error {
	if _, err := s.GetByID(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id.String())
}

func (s *Service) List(ctx context.Context, req domain.ListProjectsRequest) ([]domain.Project, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}

	query := &domain.Project{UserID: req.UserID}
	if req.Status != "" {
		query.Status = req.Status
	}

	items, err := s.store.Find(ctx, query, option.WithSortBy(option.QuerySortBy{
		Default: "created_at",
		Desc:    true,
	}))
	if err != nil {
		return nil, err
	}

	projects := make([]domain.Project, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projects = append(projects, *item)
	}
	return projects, nil
}
