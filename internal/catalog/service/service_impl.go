package service

import (
	"fmt"
	"strings"

	catalogdomain "github.com/Gizz1e/Gizzle/internal/catalog/domain"
	"github.com/Gizz1e/Gizzle/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

type Service struct {
	plans     []catalogdomain.Plan
	items     []catalogdomain.Item
	planIndex map[string]int
	itemIndex map[string]int
}

// New builds the catalog from CATALOG_FILE when set, otherwise from the
// built-in definition.
func New(p Params) (catalogdomain.Catalog, error) {
	log := p.Log.Named("catalog.service")

	plans, items := defaultPlans(), defaultItems()
	source := "default"
	if path := strings.TrimSpace(p.Cfg.CatalogFile); path != "" {
		var err error
		plans, items, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
		source = path
	}

	svc, err := NewStatic(plans, items)
	if err != nil {
		return nil, err
	}
	log.Info("catalog loaded",
		zap.String("source", source),
		zap.Int("plans", len(plans)),
		zap.Int("items", len(items)),
	)
	return svc, nil
}

// Default returns the built-in catalog.
func Default() *Service {
	svc, err := NewStatic(defaultPlans(), defaultItems())
	if err != nil {
		panic(err)
	}
	return svc
}

// NewStatic validates and indexes the given definition.
func NewStatic(plans []catalogdomain.Plan, items []catalogdomain.Item) (*Service, error) {
	svc := &Service{
		plans:     make([]catalogdomain.Plan, 0, len(plans)),
		items:     make([]catalogdomain.Item, 0, len(items)),
		planIndex: make(map[string]int, len(plans)),
		itemIndex: make(map[string]int, len(items)),
	}

	for _, plan := range plans {
		plan.ID = strings.TrimSpace(plan.ID)
		if err := validateEntry("plan", plan.ID, plan.Price.IsPositive(), plan.Currency); err != nil {
			return nil, err
		}
		if _, exists := svc.planIndex[plan.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate plan %q", catalogdomain.ErrInvalidCatalog, plan.ID)
		}
		plan.Currency = strings.ToLower(strings.TrimSpace(plan.Currency))
		svc.planIndex[plan.ID] = len(svc.plans)
		svc.plans = append(svc.plans, plan.Clone())
	}

	for _, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if err := validateEntry("item", item.ID, item.Price.IsPositive(), item.Currency); err != nil {
			return nil, err
		}
		if _, exists := svc.itemIndex[item.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate item %q", catalogdomain.ErrInvalidCatalog, item.ID)
		}
		item.Currency = strings.ToLower(strings.TrimSpace(item.Currency))
		svc.itemIndex[item.ID] = len(svc.items)
		svc.items = append(svc.items, item)
	}

	return svc, nil
}

func validateEntry(kind, id string, positivePrice bool, currency string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: %s without id", catalogdomain.ErrInvalidCatalog, kind)
	case !positivePrice:
		return fmt.Errorf("%w: %s %q must have a positive price", catalogdomain.ErrInvalidCatalog, kind, id)
	case strings.TrimSpace(currency) == "":
		return fmt.Errorf("%w: %s %q has no currency", catalogdomain.ErrInvalidCatalog, kind, id)
	}
	return nil
}

func (s *Service) ListPlans() []catalogdomain.Plan {
	out := make([]catalogdomain.Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		out = append(out, plan.Clone())
	}
	return out
}

func (s *Service) GetPlan(id string) (catalogdomain.Plan, error) {
	idx, ok := s.planIndex[strings.TrimSpace(id)]
	if !ok {
		return catalogdomain.Plan{}, catalogdomain.ErrNotFound
	}
	return s.plans[idx].Clone(), nil
}

func (s *Service) ListItems() []catalogdomain.Item {
	return append([]catalogdomain.Item(nil), s.items...)
}

func (s *Service) GetItem(id string) (catalogdomain.Item, error) {
	idx, ok := s.itemIndex[strings.TrimSpace(id)]
	if !ok {
		return catalogdomain.Item{}, catalogdomain.ErrNotFound
	}
	return s.items[idx], nil
}
