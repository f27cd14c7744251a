package service

import (
	"fmt"

	catalogdomain "github.com/Gizz1e/Gizzle/internal/catalog/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type fileCatalog struct {
	Plans []filePlan `mapstructure:"plans"`
	Items []fileItem `mapstructure:"items"`
}

type filePlan struct {
	ID        string   `mapstructure:"id"`
	Name      string   `mapstructure:"name"`
	Price     string   `mapstructure:"price"`
	Currency  string   `mapstructure:"currency"`
	Interval  string   `mapstructure:"interval"`
	Features  []string `mapstructure:"features"`
	IsPopular bool     `mapstructure:"is_popular"`
}

type fileItem struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Price       string `mapstructure:"price"`
	Currency    string `mapstructure:"currency"`
	Description string `mapstructure:"description"`
}

// LoadFile reads a catalog definition (YAML, JSON or TOML by extension).
// Prices are strings so they parse exactly into decimals.
func LoadFile(path string) ([]catalogdomain.Plan, []catalogdomain.Item, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var raw fileCatalog
	if err := v.Unmarshal(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	plans := make([]catalogdomain.Plan, 0, len(raw.Plans))
	for _, p := range raw.Plans {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: plan %q price %q", catalogdomain.ErrInvalidCatalog, p.ID, p.Price)
		}
		interval := catalogdomain.Interval(p.Interval)
		if interval == "" {
			interval = catalogdomain.Monthly
		}
		if interval != catalogdomain.Monthly && interval != catalogdomain.Yearly {
			return nil, nil, fmt.Errorf("%w: plan %q interval %q", catalogdomain.ErrInvalidCatalog, p.ID, p.Interval)
		}
		plans = append(plans, catalogdomain.Plan{
			ID:        p.ID,
			Name:      p.Name,
			Price:     price,
			Currency:  p.Currency,
			Interval:  interval,
			Features:  p.Features,
			IsPopular: p.IsPopular,
		})
	}

	items := make([]catalogdomain.Item, 0, len(raw.Items))
	for _, it := range raw.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: item %q price %q", catalogdomain.ErrInvalidCatalog, it.ID, it.Price)
		}
		items = append(items, catalogdomain.Item{
			ID:          it.ID,
			Name:        it.Name,
			Price:       price,
			Currency:    it.Currency,
			Description: it.Description,
		})
	}

	return plans, items, nil
}
