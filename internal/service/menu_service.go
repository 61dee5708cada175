package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"coffee-menu/internal/domain"

	"github.com/sirupsen/logrus"
)

type MenuService struct {
	repository MenuRepository
	publisher  MenuPublisher
	qrEncoder  QRGenerator
	log        logrus.FieldLogger
}

// NewMenuService wires the service. publisher and qr may be nil.
func NewMenuService(repository MenuRepository, publisher MenuPublisher, qr QRGenerator, log logrus.FieldLogger) *MenuService {
	return &MenuService{
		repository: repository,
		publisher:  publisher,
		qrEncoder:  qr,
		log:        log.WithField("component", "menu_service"),
	}
}

func (s *MenuService) List(ctx context.Context) ([]domain.MenuItem, error) {
	return s.repository.ListMenuItems(ctx)
}

func (s *MenuService) Get(ctx context.Context, id string) (*domain.MenuItem, error) {
	return s.repository.GetMenuItem(ctx, id)
}

func (s *MenuService) Add(ctx context.Context, form domain.MenuItemForm) (*domain.MenuItem, error) {
	item, err := itemFromForm(form)
	if err != nil {
		return nil, err
	}
	if err := s.repository.CreateMenuItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add menu item: %w", err)
	}

	s.publish(ctx, domain.EventItemAdded, item)
	return item, nil
}

// Update overwrites every field of the item. A well-formed id that matches
// nothing is not an error.
func (s *MenuService) Update(ctx context.Context, id string, form domain.MenuItemForm) error {
	item, err := itemFromForm(form)
	if err != nil {
		return err
	}
	item.ID = id

	matched, err := s.repository.UpdateMenuItem(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	if matched == 0 {
		s.log.WithField("item_id", id).Warn("update matched no menu item")
		return nil
	}

	s.publish(ctx, domain.EventItemUpdated, item)
	return nil
}

// Delete removes the item. A well-formed id that matches nothing is not an
// error.
func (s *MenuService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repository.DeleteMenuItem(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if deleted == 0 {
		s.log.WithField("item_id", id).Warn("delete matched no menu item")
		return nil
	}

	s.publish(ctx, domain.EventItemDeleted, &domain.MenuItem{ID: id, Price: math.NaN()})
	return nil
}

func (s *MenuService) QRCode(ctx context.Context, id string) ([]byte, error) {
	if s.qrEncoder == nil {
		return nil, fmt.Errorf("qr codes are not configured")
	}
	item, err := s.repository.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.qrEncoder.Generate(item.ID)
}

// Ping reports whether the store is reachable.
func (s *MenuService) Ping(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

func (s *MenuService) publish(ctx context.Context, eventType string, item *domain.MenuItem) {
	if s.publisher == nil {
		return
	}
	event := domain.MenuEvent{
		Type:      eventType,
		ItemID:    item.ID,
		Name:      item.Name,
		Timestamp: time.Now(),
	}
	if !math.IsNaN(item.Price) {
		price := item.Price
		event.Price = &price
	}
	if err := s.publisher.PublishMenuEvent(ctx, event); err != nil {
		s.log.WithError(err).WithField("event", eventType).Warn("failed to publish menu event")
	}
}

func itemFromForm(form domain.MenuItemForm) (*domain.MenuItem, error) {
	price, err := ParsePrice(form.Price)
	if err != nil {
		return nil, err
	}
	return &domain.MenuItem{
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Image:       form.Image,
	}, nil
}
