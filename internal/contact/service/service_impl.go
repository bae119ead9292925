package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mantodeus/mantodeus-manager/internal/clock"
	"github.com/mantodeus/mantodeus-manager/internal/contact/domain"
	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("contact.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateContactRequest) (domain.Contact, error) {
	if req.UserID == 0 {
		return domain.Contact{}, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Contact{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return domain.Contact{}, domain.ErrInvalidEmail
	}

	now := s.clock.Now()
	contact := domain.Contact{
		ID:         s.genID.Generate(),
		UserID:     req.UserID,
		Name:       name,
		Company:    strings.TrimSpace(req.Company),
		Email:      email,
		Phone:      strings.TrimSpace(req.Phone),
		Street:     strings.TrimSpace(req.Street),
		PostalCode: strings.TrimSpace(req.PostalCode),
		City:       strings.TrimSpace(req.City),
		Country:    strings.TrimSpace(req.Country),
		VATID:      strings.TrimSpace(req.VATID),
		Notes:      req.Notes,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, &contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

func (s *Service) GetByID(ctx context.Context, userID int64, id snowflake.ID) (domain.Contact, error) {
	if userID == 0 {
		return domain.Contact{}, domain.ErrInvalidUser
	}
	contact, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return domain.Contact{}, err
	}
	if contact == nil {
		return domain.Contact{}, domain.ErrNotFound
	}
	return *contact, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateContactRequest) (domain.Contact, error) {
	if req.UserID == 0 {
		return domain.Contact{}, domain.ErrInvalidUser
	}

	contact, err := s.repo.FindByID(ctx, s.db, req.UserID, req.ContactID)
	if err != nil {
		return domain.Contact{}, err
	}
	if contact == nil {
		return domain.Contact{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Contact{}, domain.ErrInvalidName
		}
		contact.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && !strings.Contains(email, "@") {
			return domain.Contact{}, domain.ErrInvalidEmail
		}
		contact.Email = email
	}
	applyString(&contact.Company, req.Company)
	applyString(&contact.Phone, req.Phone)
	applyString(&contact.Street, req.Street)
	applyString(&contact.PostalCode, req.PostalCode)
	applyString(&contact.City, req.City)
	applyString(&contact.Country, req.Country)
	applyString(&contact.VATID, req.VATID)
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}

	contact.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, contact); err != nil {
		return domain.Contact{}, err
	}
	return *contact, nil
}

func (s *Service) Delete(ctx context.Context, userID int64, id snowflake.ID) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	if err := s.repo.Delete(ctx, s.db, userID, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListContactRequest) (domain.ListContactResponse, error) {
	if req.UserID == 0 {
		return domain.ListContactResponse{}, domain.ErrInvalidUser
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, req.UserID, domain.ListContactFilter{
		Query: req.Query,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListContactResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(contact *domain.Contact) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        contact.ID.String(),
			CreatedAt: contact.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	contacts := make([]domain.Contact, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		contacts = append(contacts, *item)
	}

	resp := domain.ListContactResponse{Contacts: contacts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func applyString(dst *string, src *string) {
	if src == nil {
		return
	}
	*dst = strings.TrimSpace(*src)
}
