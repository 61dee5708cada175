package domain

import "time"

type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

// MenuItemForm carries the submitted fields before price coercion.
type MenuItemForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
}

const (
	EventItemAdded   = "menu_item_added"
	EventItemUpdated = "menu_item_updated"
	EventItemDeleted = "menu_item_deleted"
)

// MenuEvent is published after a successful mutation. Price is nil for
// deletes and for prices that are not a number.
type MenuEvent struct {
	Type      string    `json:"type"`
	ItemID    string    `json:"item_id"`
	Name      string    `json:"name,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
