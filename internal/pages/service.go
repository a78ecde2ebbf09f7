package pages

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollpulse/pollpulse-backend/pkg/db"
	"github.com/pollpulse/pollpulse-backend/pkg/db/models"
	pkgerrors "github.com/pollpulse/pollpulse-backend/pkg/errors"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PageDTO is the API shape of a static page.
type PageDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePageInput is the staff payload for publishing a page.
type CreatePageInput struct {
	Title   string `json:"title" validate:"required"`
	Slug    string `json:"slug" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// UpdatePageInput is the staff payload for partial page updates.
type UpdatePageInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Service exposes static pages publicly and manages them for staff.
type Service interface {
	List(ctx context.Context) ([]PageDTO, error)
	GetBySlug(ctx context.Context, slug string) (*PageDTO, error)
	Create(ctx context.Context, input CreatePageInput) (*PageDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePageInput) (*PageDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds a pages service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pages repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]PageDTO, error) {
	pages, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pages")
	}
	out := make([]PageDTO, 0, len(pages))
	for i := range pages {
		out = append(out, fromModel(&pages[i]))
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*PageDTO, error) {
	page, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load page")
	}
	dto := fromModel(page)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreatePageInput) (*PageDTO, error) {
	slug := strings.TrimSpace(input.Slug)
	if !slugRe.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits, and hyphens")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page title is required")
	}

	page := &models.Page{
		Title:   title,
		Slug:    slug,
		Content: input.Content,
	}
	if err := s.repo.Create(ctx, page); err != nil {
		if db.IsUniqueViolation(err, "idx_pages_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a page with this slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create page")
	}
	dto := fromModel(page)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePageInput) (*PageDTO, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "page title cannot be blank")
		}
		updates["title"] = title
	}
	if input.Content != nil {
		updates["content"] = *input.Content
	}

	page, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update page")
	}
	dto := fromModel(page)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete page")
	}
	return nil
}

func fromModel(page *models.Page) PageDTO {
	return PageDTO{
		ID:        page.ID,
		Title:     page.Title,
		Slug:      page.Slug,
		Content:   page.Content,
		CreatedAt: page.CreatedAt,
		UpdatedAt: page.UpdatedAt,
	}
}
