package domain

import "github.com/shopspring/decimal"

type Interval string

var (
	Monthly Interval = "monthly"
	Yearly  Interval = "yearly"
)

// Plan is a recurring subscription tier offered to members.
type Plan struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Interval  Interval        `json:"interval"`
	Features  []string        `json:"features"`
	IsPopular bool            `json:"is_popular"`
}

// Item is a one-off purchase such as upload credits.
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

// Clone returns a copy that shares no slices with p.
func (p Plan) Clone() Plan {
	if p.Features != nil {
		p.Features = append([]string(nil), p.Features...)
	}
	return p
}
