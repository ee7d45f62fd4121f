package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/nurpe/contratpro/internal/model"
)

// Gateway is implemented by Stub and Client.
type Gateway interface {
	Initiate(ctx context.Context, req model.PaymentRequest) (model.InitiateResult, error)
	Verify(ctx context.Context, transactionID string) (bool, error)
}

type BreakerConfig struct {
	// ConsecutiveFailures opens the breaker. Zero disables tripping.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// Breaker stops calling a failing provider. Refused charges are results,
// not errors, so they never trip it.
type Breaker struct {
	next     Gateway
	initiate *gobreaker.CircuitBreaker[model.InitiateResult]
	verify   *gobreaker.CircuitBreaker[bool]
}

func NewBreaker(next Gateway, cfg BreakerConfig, log zerolog.Logger) *Breaker {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				// the payer leaving is not a provider fault; a provider that runs
				// past the settle deadline is
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("payment gateway breaker state changed")
			},
		}
	}
	return &Breaker{
		next:     next,
		initiate: gobreaker.NewCircuitBreaker[model.InitiateResult](settings("gateway-initiate")),
		verify:   gobreaker.NewCircuitBreaker[bool](settings("gateway-verify")),
	}
}

func (b *Breaker) Initiate(ctx context.Context, req model.PaymentRequest) (model.InitiateResult, error) {
	return b.initiate.Execute(func() (model.InitiateResult, error) {
		return b.next.Initiate(ctx, req)
	})
}

func (b *Breaker) Verify(ctx context.Context, transactionID string) (bool, error) {
	return b.verify.Execute(func() (bool, error) {
		return b.next.Verify(ctx, transactionID)
	})
}
