package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"coffee-menu/internal/domain"
	"coffee-menu/internal/service"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// menuJSON is the JSONB document body stored per row. JSON has no NaN, so a
// price that is not a number is stored as null.
type menuJSON struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Image       string   `json:"image"`
}

// PostgresRepository stores each menu item as a schemaless JSONB document
// keyed by a UUID.
type PostgresRepository struct {
	DB    *sql.DB
	table string
	log   logrus.FieldLogger
}

func NewPostgresRepository(db *sql.DB, table string, log logrus.FieldLogger) *PostgresRepository {
	return &PostgresRepository{
		DB:    db,
		table: pq.QuoteIdentifier(table),
		log:   log.WithField("component", "postgres_repository"),
	}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			doc JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, r.table),
	}
	for _, stmt := range statements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema `%s`: %w", stmt, err)
		}
	}
	return nil
}

func (r *PostgresRepository) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`SELECT id, doc FROM %s ORDER BY created_at`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.MenuItem{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			r.log.WithError(err).Warn("row scan error")
			continue
		}
		item, err := decodeMenuJSON(id, raw)
		if err != nil {
			r.log.WithError(err).WithField("item_id", id).Warn("malformed menu document")
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	key, err := parseUUID(id)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = r.DB.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, r.table), key.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	item, err := decodeMenuJSON(key.String(), raw)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) CreateMenuItem(ctx context.Context, item *domain.MenuItem) error {
	raw, err := encodeMenuJSON(item)
	if err != nil {
		return err
	}

	id := uuid.New()
	if _, err := r.DB.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, r.table), id.String(), string(raw)); err != nil {
		return err
	}
	item.ID = id.String()

	r.log.WithField("item_id", item.ID).Info("Menu item added")
	return nil
}

// UpdateMenuItem replaces the whole document and returns the rows matched.
func (r *PostgresRepository) UpdateMenuItem(ctx context.Context, item *domain.MenuItem) (int64, error) {
	key, err := parseUUID(item.ID)
	if err != nil {
		return 0, err
	}
	raw, err := encodeMenuJSON(item)
	if err != nil {
		return 0, err
	}

	result, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET doc = $1 WHERE id = $2`, r.table), string(raw), key.String())
	if err != nil {
		return 0, err
	}

	r.log.WithField("item_id", item.ID).Info("Menu item updated")
	return result.RowsAffected()
}

func (r *PostgresRepository) DeleteMenuItem(ctx context.Context, id string) (int64, error) {
	key, err := parseUUID(id)
	if err != nil {
		return 0, err
	}

	result, err := r.DB.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), key.String())
	if err != nil {
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted == 1 {
		r.log.WithField("item_id", id).Info("Delete successful")
	}
	return deleted, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func parseUUID(id string) (uuid.UUID, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidID, err)
	}
	return key, nil
}

func encodeMenuJSON(item *domain.MenuItem) ([]byte, error) {
	doc := menuJSON{
		Name:        item.Name,
		Description: item.Description,
		Image:       item.Image,
	}
	if !math.IsNaN(item.Price) {
		price := item.Price
		doc.Price = &price
	}
	return json.Marshal(doc)
}

func decodeMenuJSON(id string, raw []byte) (domain.MenuItem, error) {
	var doc menuJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.MenuItem{}, err
	}
	price := math.NaN()
	if doc.Price != nil {
		price = *doc.Price
	}
	return domain.MenuItem{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Price:       price,
		Image:       doc.Image,
	}, nil
}

var _ service.MenuRepository = (*PostgresRepository)(nil)
