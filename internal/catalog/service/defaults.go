package service

import (
	catalogdomain "github.com/Gizz1e/Gizzle/internal/catalog/domain"
	"github.com/shopspring/decimal"
)

func defaultPlans() []catalogdomain.Plan {
	return []catalogdomain.Plan{
		{
			ID:       "basic",
			Name:     "Basic Plan",
			Price:    decimal.RequireFromString("9.99"),
			Currency: "usd",
			Interval: catalogdomain.Monthly,
			Features: []string{
				"Upload videos up to 100MB",
				"5 videos per day",
				"Basic community access",
			},
		},
		{
			ID:       "premium",
			Name:     "Premium Plan",
			Price:    decimal.RequireFromString("19.99"),
			Currency: "usd",
			Interval: catalogdomain.Monthly,
			Features: []string{
				"Upload videos up to 1GB",
				"Unlimited uploads",
				"Premium community features",
				"Live streaming access",
			},
			IsPopular: true,
		},
		{
			ID:       "vip",
			Name:     "VIP Plan",
			Price:    decimal.RequireFromString("39.99"),
			Currency: "usd",
			Interval: catalogdomain.Monthly,
			Features: []string{
				"Unlimited everything",
				"Priority support",
				"Exclusive community access",
				"Advanced analytics",
			},
		},
	}
}

func defaultItems() []catalogdomain.Item {
	return []catalogdomain.Item{
		{
			ID:          "premium_upload",
			Name:        "Premium Upload Credits",
			Price:       decimal.RequireFromString("4.99"),
			Currency:    "usd",
			Description: "10 premium upload credits",
		},
		{
			ID:          "live_stream_hours",
			Name:        "Live Stream Hours",
			Price:       decimal.RequireFromString("9.99"),
			Currency:    "usd",
			Description: "5 additional live stream hours",
		},
		{
			ID:          "premium_features",
			Name:        "Premium Features",
			Price:       decimal.RequireFromString("2.99"),
			Currency:    "usd",
			Description: "Unlock premium editing features",
		},
	}
}
