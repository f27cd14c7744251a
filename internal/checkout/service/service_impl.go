package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	catalogdomain "github.com/Gizz1e/Gizzle/internal/catalog/domain"
	checkoutdomain "github.com/Gizz1e/Gizzle/internal/checkout/domain"
	obsmetrics "github.com/Gizz1e/Gizzle/internal/observability/metrics"
	paymentdomain "github.com/Gizz1e/Gizzle/internal/payment/domain"
	transactiondomain "github.com/Gizz1e/Gizzle/internal/transaction/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sessionPlaceholder = "{CHECKOUT_SESSION_ID}"

type Params struct {
	fx.In

	Log          *zap.Logger
	Catalog      catalogdomain.Catalog
	Gateway      paymentdomain.Gateway
	Transactions transactiondomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	catalog      catalogdomain.Catalog
	gateway      paymentdomain.Gateway
	transactions transactiondomain.Service
	metrics      *obsmetrics.Metrics
}

func New(p Params) checkoutdomain.Service {
	return &Service{
		log:          p.Log.Named("checkout.service"),
		catalog:      p.Catalog,
		gateway:      p.Gateway,
		transactions: p.Transactions,
		metrics:      p.ObsMetrics,
	}
}

// checkoutTarget is the catalog entry being bought, reduced to what the
// gateway and the ledger need.
type checkoutTarget struct {
	kind        string
	amount      decimal.Decimal
	currency    string
	description string
	successPath string
	cancelPath  string
	planID      string
	itemID      string
	metadata    map[string]string
}

func (s *Service) CreateSubscriptionCheckout(ctx context.Context, req checkoutdomain.CreateRequest) (*checkoutdomain.Result, error) {
	plan, err := s.catalog.GetPlan(req.PlanID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrNotFound) {
			return nil, checkoutdomain.ErrInvalidSelection
		}
		return nil, err
	}

	result, err := s.open(ctx, req, checkoutTarget{
		kind:        transactiondomain.TypeSubscription,
		amount:      plan.Price,
		currency:    plan.Currency,
		description: plan.Name,
		successPath: "/subscription-success",
		cancelPath:  "/subscriptions",
		planID:      plan.ID,
		metadata: map[string]string{
			transactiondomain.MetadataType:     transactiondomain.TypeSubscription,
			transactiondomain.MetadataPlanID:   plan.ID,
			transactiondomain.MetadataPlanName: plan.Name,
		},
	})
	if err != nil {
		return nil, err
	}
	result.Plan = &plan
	return result, nil
}

func (s *Service) CreatePurchaseCheckout(ctx context.Context, req checkoutdomain.CreateRequest) (*checkoutdomain.Result, error) {
	item, err := s.catalog.GetItem(req.ItemID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrNotFound) {
			return nil, checkoutdomain.ErrInvalidSelection
		}
		return nil, err
	}

	result, err := s.open(ctx, req, checkoutTarget{
		kind:        transactiondomain.TypePurchase,
		amount:      item.Price,
		currency:    item.Currency,
		description: item.Description,
		successPath: "/purchase-success",
		cancelPath:  "/store",
		itemID:      item.ID,
		metadata: map[string]string{
			transactiondomain.MetadataType:     transactiondomain.TypePurchase,
			transactiondomain.MetadataItemID:   item.ID,
			transactiondomain.MetadataItemName: item.Name,
		},
	})
	if err != nil {
		return nil, err
	}
	result.Item = &item
	return result, nil
}

func (s *Service) open(ctx context.Context, req checkoutdomain.CreateRequest, target checkoutTarget) (*checkoutdomain.Result, error) {
	origin, err := normalizeOrigin(req.Origin)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, paymentdomain.CheckoutSessionRequest{
		Amount:      target.amount,
		Currency:    target.currency,
		Description: target.description,
		SuccessURL:  origin + target.successPath + "?session_id=" + sessionPlaceholder,
		CancelURL:   origin + target.cancelPath,
		Metadata:    target.metadata,
	})
	if err != nil {
		s.log.Warn("checkout session not opened",
			zap.String("kind", target.kind),
			zap.String("plan_id", target.planID),
			zap.String("item_id", target.itemID),
			zap.Error(err),
		)
		return nil, err
	}

	metadata := make(map[string]any, len(target.metadata))
	for key, value := range target.metadata {
		metadata[key] = value
	}
	_, err = s.transactions.Create(ctx, transactiondomain.CreateRequest{
		SessionID: session.SessionID,
		Amount:    target.amount,
		Currency:  target.currency,
		PlanID:    target.planID,
		ItemID:    target.itemID,
		MemberID:  req.MemberID,
		Metadata:  metadata,
	})
	if err != nil {
		// The provider session exists with no ledger record behind it.
		s.log.Error("reconciliation gap: checkout session opened but transaction not recorded",
			zap.String("session_id", session.SessionID),
			zap.String("kind", target.kind),
			zap.Error(err),
		)
		return nil, fmt.Errorf("record transaction for session %s: %w", session.SessionID, err)
	}

	s.metrics.RecordCheckoutSession(ctx, s.gateway.Provider(), target.kind)
	s.log.Info("checkout session opened",
		zap.String("session_id", session.SessionID),
		zap.String("kind", target.kind),
		zap.String("amount", target.amount.StringFixed(2)),
		zap.String("currency", target.currency),
	)

	return &checkoutdomain.Result{
		CheckoutURL: session.URL,
		SessionID:   session.SessionID,
	}, nil
}

// normalizeOrigin requires an absolute http(s) origin and strips trailing slashes.
func normalizeOrigin(origin string) (string, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return "", checkoutdomain.ErrInvalidOrigin
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", checkoutdomain.ErrInvalidOrigin
	}
	return origin, nil
}
