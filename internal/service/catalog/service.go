// Package catalog implements the catalog rules: services and expense
// categories carry a dense 0..n-1 display order, creates append at the end,
// and reorders atomically rewrite the whole index. Deleting a catalog entry
// never touches ledger rows that reference it.
package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/errs"
	"github.com/salonbook/salonbook/internal/service"
)

type Repo interface {
	ListServices(ctx context.Context) ([]book.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (book.Service, error)
	ListCategories(ctx context.Context) ([]book.ExpenseCategory, error)
	GetCategory(ctx context.Context, id uuid.UUID) (book.ExpenseCategory, error)
}

type Writer interface {
	CreateService(ctx context.Context, v book.Service) (book.Service, error)
	UpdateService(ctx context.Context, v book.Service) (book.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
	ReorderServices(ctx context.Context, ids []uuid.UUID) error
	CreateCategory(ctx context.Context, c book.ExpenseCategory) (book.ExpenseCategory, error)
	UpdateCategory(ctx context.Context, c book.ExpenseCategory) (book.ExpenseCategory, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ReorderCategories(ctx context.Context, ids []uuid.UUID) error
}

type Service struct {
	repo   Repo
	writer Writer
}

func New(repo Repo, writer Writer) *Service { return &Service{repo: repo, writer: writer} }

// ServiceInput carries the operator-supplied fields of a new catalog service.
type ServiceInput struct {
	Name      string
	UnitPrice int64
	Icon      *string
	Color     string
}

// ServicePatch holds partial updates; nil fields are left unchanged.
type ServicePatch struct {
	Name      *string
	UnitPrice *int64
	Icon      *string
	Color     *string
}

// CategoryInput carries the operator-supplied fields of a new expense category.
type CategoryInput struct {
	Name string
	Icon *string
}

// CategoryPatch holds partial updates; nil fields are left unchanged.
type CategoryPatch struct {
	Name *string
	Icon *string
}

// ListServices returns the service catalog in display order.
func (s *Service) ListServices(ctx context.Context) ([]book.Service, error) {
	return s.repo.ListServices(ctx)
}

// CreateService validates the input and appends a new service at the end of
// the display order.
func (s *Service) CreateService(ctx context.Context, in ServiceInput) (book.Service, error) {
	if strings.TrimSpace(in.Name) == "" {
		return book.Service{}, errs.ErrInvalid
	}
	if in.UnitPrice < 0 {
		return book.Service{}, errs.ErrInvalid
	}
	if strings.TrimSpace(in.Color) == "" {
		return book.Service{}, errs.ErrInvalid
	}
	v := book.Service{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		UnitPrice: in.UnitPrice,
		Icon:      in.Icon,
		Color:     in.Color,
	}
	var created book.Service
	err := service.Retry(func() error {
		var err error
		created, err = s.writer.CreateService(ctx, v)
		return err
	})
	return created, err
}

// UpdateService applies a partial update to an existing service.
func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, patch ServicePatch) (book.Service, error) {
	v, err := s.repo.GetService(ctx, id)
	if err != nil {
		return book.Service{}, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return book.Service{}, errs.ErrInvalid
		}
		v.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.UnitPrice != nil {
		if *patch.UnitPrice < 0 {
			return book.Service{}, errs.ErrInvalid
		}
		v.UnitPrice = *patch.UnitPrice
	}
	if patch.Icon != nil {
		v.Icon = patch.Icon
	}
	if patch.Color != nil {
		if strings.TrimSpace(*patch.Color) == "" {
			return book.Service{}, errs.ErrInvalid
		}
		v.Color = *patch.Color
	}
	var updated book.Service
	err = service.Retry(func() error {
		var err error
		updated, err = s.writer.UpdateService(ctx, v)
		return err
	})
	return updated, err
}

// DeleteService removes a service. Existing daily records keep referencing
// the deleted id; readers render them with a "service unknown" fallback.
func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	return service.Retry(func() error { return s.writer.DeleteService(ctx, id) })
}

// ReorderServices rewrites the display order to the list's index order.
// The list is authoritative and must name every service exactly once.
func (s *Service) ReorderServices(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return errs.ErrInvalid
	}
	return service.Retry(func() error { return s.writer.ReorderServices(ctx, ids) })
}

// ListCategories returns the expense categories in display order.
func (s *Service) ListCategories(ctx context.Context) ([]book.ExpenseCategory, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory validates the input and appends a new category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (book.ExpenseCategory, error) {
	if strings.TrimSpace(in.Name) == "" {
		return book.ExpenseCategory{}, errs.ErrInvalid
	}
	c := book.ExpenseCategory{
		ID:   uuid.New(),
		Name: strings.TrimSpace(in.Name),
		Icon: in.Icon,
	}
	var created book.ExpenseCategory
	err := service.Retry(func() error {
		var err error
		created, err = s.writer.CreateCategory(ctx, c)
		return err
	})
	return created, err
}

// UpdateCategory applies a partial update to an existing category.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (book.ExpenseCategory, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return book.ExpenseCategory{}, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return book.ExpenseCategory{}, errs.ErrInvalid
		}
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Icon != nil {
		c.Icon = patch.Icon
	}
	var updated book.ExpenseCategory
	err = service.Retry(func() error {
		var err error
		updated, err = s.writer.UpdateCategory(ctx, c)
		return err
	})
	return updated, err
}

// DeleteCategory removes a category; referencing monthly expenses are kept.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return service.Retry(func() error { return s.writer.DeleteCategory(ctx, id) })
}

// ReorderCategories rewrites category display order to the list's index order.
func (s *Service) ReorderCategories(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return errs.ErrInvalid
	}
	return service.Retry(func() error { return s.writer.ReorderCategories(ctx, ids) })
}
