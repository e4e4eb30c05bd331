package services

import (
	"context"
	"errors"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type CategoryInput struct {
	Name          string               `json:"name"`
	Type          core.TransactionType `json:"type"`
	Subcategories []string             `json:"subcategories"`
}

type CategoryPatch struct {
	Name *string               `json:"name,omitempty"`
	Type *core.TransactionType `json:"type,omitempty"`
}

// CategoryService manages categories. Deleting one leaves budgets and
// transactions that reference its name in place.
type CategoryService struct {
	store ports.CategoryStore
}

func NewCategoryService(store ports.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func categoryWriteError(err error) error {
	if errors.Is(err, core.ErrDuplicateCategory) {
		return core.Validation("", err)
	}
	return storeError("category", err)
}

func (s *CategoryService) Create(ctx context.Context, userID string, in CategoryInput) (core.Category, error) {
	c := core.Category{
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		Type:          in.Type,
		Subcategories: core.Subcategories{},
	}
	for _, sub := range in.Subcategories {
		var err error
		if c.Subcategories, err = c.Subcategories.Add(sub); err != nil {
			return core.Category{}, core.Validation("invalid subcategory", err)
		}
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, core.Validation("", err)
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, categoryWriteError(err)
	}
	return created, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, storeError("category", err)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	out, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, core.Internal("list categories", err)
	}
	return out, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, p CategoryPatch) (core.Category, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, core.Validation("", err)
	}
	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, categoryWriteError(err)
	}
	return updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := s.store.DeleteCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, storeError("category", err)
	}
	return c, nil
}

func (s *CategoryService) AddSubcategory(ctx context.Context, userID, id, name string) (core.Category, error) {
	return s.mutateSubcategories(ctx, userID, id, func(subs core.Subcategories) (core.Subcategories, error) {
		return subs.Add(name)
	})
}

// UpdateSubcategory renames the entry at rawIndex, a path segment.
func (s *CategoryService) UpdateSubcategory(ctx context.Context, userID, id, rawIndex, name string) (core.Category, error) {
	i, err := core.ParseIndex(rawIndex)
	if err != nil {
		return core.Category{}, err
	}
	return s.mutateSubcategories(ctx, userID, id, func(subs core.Subcategories) (core.Subcategories, error) {
		return subs.Set(i, name)
	})
}

// DeleteSubcategory removes the entry at rawIndex; later entries shift down.
func (s *CategoryService) DeleteSubcategory(ctx context.Context, userID, id, rawIndex string) (core.Category, error) {
	i, err := core.ParseIndex(rawIndex)
	if err != nil {
		return core.Category{}, err
	}
	return s.mutateSubcategories(ctx, userID, id, func(subs core.Subcategories) (core.Subcategories, error) {
		return subs.Remove(i)
	})
}

func (s *CategoryService) mutateSubcategories(ctx context.Context, userID, id string, fn func(core.Subcategories) (core.Subcategories, error)) (core.Category, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	subs, err := fn(c.Subcategories)
	if err != nil {
		// Out-of-range and empty names alike are input the category rejects.
		return core.Category{}, core.Validation("", err)
	}
	c.Subcategories = subs
	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, categoryWriteError(err)
	}
	return updated, nil
}
