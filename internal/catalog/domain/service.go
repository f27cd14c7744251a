package domain

import "errors"

// Catalog is the read-only registry of plans and items. Returned values are
// copies; changing them never changes the catalog.
type Catalog interface {
	ListPlans() []Plan
	GetPlan(id string) (Plan, error)
	ListItems() []Item
	GetItem(id string) (Item, error)
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidCatalog = errors.New("invalid_catalog")
)
