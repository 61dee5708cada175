package service

import (
	"context"

	"coffee-menu/internal/domain"
)

type MenuRepository interface {
	ListMenuItems(ctx context.Context) ([]domain.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *domain.MenuItem) error
	UpdateMenuItem(ctx context.Context, item *domain.MenuItem) (int64, error)
	DeleteMenuItem(ctx context.Context, id string) (int64, error)
	Ping(ctx context.Context) error
}

type MenuPublisher interface {
	PublishMenuEvent(ctx context.Context, event domain.MenuEvent) error
}

type QRGenerator interface {
	Generate(itemID string) ([]byte, error)
}

type MenuServiceInterface interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	Get(ctx context.Context, id string) (*domain.MenuItem, error)
	Add(ctx context.Context, form domain.MenuItemForm) (*domain.MenuItem, error)
	Update(ctx context.Context, id string, form domain.MenuItemForm) error
	Delete(ctx context.Context, id string) error
	QRCode(ctx context.Context, id string) ([]byte, error)
	Ping(ctx context.Context) error
}

var _ MenuServiceInterface = (*MenuService)(nil)
