package main

import (
	"github.com/Gizz1e/Gizzle/internal/catalog"
	"github.com/Gizz1e/Gizzle/internal/checkout"
	"github.com/Gizz1e/Gizzle/internal/clock"
	"github.com/Gizz1e/Gizzle/internal/config"
	"github.com/Gizz1e/Gizzle/internal/events"
	"github.com/Gizz1e/Gizzle/internal/observability"
	"github.com/Gizz1e/Gizzle/internal/payment"
	"github.com/Gizz1e/Gizzle/internal/ratelimit"
	"github.com/Gizz1e/Gizzle/internal/reconciliation"
	"github.com/Gizz1e/Gizzle/internal/transaction"
	"github.com/Gizz1e/Gizzle/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// coreModules is everything a payments process needs except its entry point.
func coreModules() fx.Option {
	return fx.Options(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,
		events.Module,

		// Functional Domains
		catalog.Module,
		payment.Module,
		transaction.Module,
		checkout.Module,
		reconciliation.Module,
	)
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
