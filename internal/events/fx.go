package events

import (
	"context"
	"strings"

	"github.com/Gizz1e/Gizzle/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.events",
	fx.Provide(NewPublisher),
)

// NewPublisher connects to RabbitMQ when RABBITMQ_URL is set and otherwise
// returns a NoopPublisher. A configured but unreachable broker fails start-up.
func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Publisher, error) {
	url := strings.TrimSpace(cfg.RabbitMQURL)
	if url == "" {
		log.Named("events").Info("rabbitmq not configured, payment events disabled")
		return NoopPublisher{}, nil
	}

	publisher, err := NewRabbitMQPublisher(url, cfg.RabbitMQExchange, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}
