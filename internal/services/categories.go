package services

import (
	"context"
	"strings"

	"tietkiem/internal/core"
	"tietkiem/internal/storage"
)

type CategoryService struct {
	gw *storage.Gateway
}

func NewCategoryService(gw *storage.Gateway) *CategoryService {
	return &CategoryService{gw: gw}
}

func (s *CategoryService) Create(ctx context.Context, userID int64, name string, typ core.TxType, icon string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.Invalid("name", "Tên danh mục không được để trống")
	}
	t, ok := core.ParseTxType(string(typ))
	if !ok {
		return core.Category{}, core.Invalid("type", "Loại danh mục phải là expense hoặc income")
	}
	if userID == 0 {
		return core.Category{}, core.Invalid("user_id", "Thiếu người dùng")
	}
	return s.gw.Categories.Create(ctx, core.Category{Name: name, Type: t, UserID: userID, Icon: strings.TrimSpace(icon)})
}

// List returns a user's categories; an empty type lists both directions.
func (s *CategoryService) List(ctx context.Context, userID int64, typ core.TxType) ([]core.Category, error) {
	if typ != "" {
		t, ok := core.ParseTxType(string(typ))
		if !ok {
			return nil, core.Invalid("type", "Loại danh mục phải là expense hoặc income")
		}
		typ = t
	}
	cats, err := s.gw.Categories.List(ctx, userID, typ)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []core.Category{}
	}
	return cats, nil
}
