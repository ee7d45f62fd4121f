// Package gateway talks to the payment provider that charges premium
// options.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/contratpro/internal/model"
)

// Stub simulates the provider: every charge succeeds after a fixed delay.
type Stub struct {
	initiateDelay time.Duration
	verifyDelay   time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

func NewStub(initiateDelay, verifyDelay time.Duration, log zerolog.Logger) *Stub {
	return &Stub{
		initiateDelay: initiateDelay,
		verifyDelay:   verifyDelay,
		log:           log.With().Str("component", "gateway_stub").Logger(),
		now:           time.Now,
	}
}

func (s *Stub) Initiate(ctx context.Context, req model.PaymentRequest) (model.InitiateResult, error) {
	s.log.Info().
		Str("reference", req.Reference.String()).
		Str("amount", req.Amount.String()).
		Str("currency", req.Currency).
		Str("method", string(methodOf(req))).
		Msg(req.Description)

	if err := sleep(ctx, s.initiateDelay); err != nil {
		return model.InitiateResult{}, err
	}
	return model.InitiateResult{
		Success:       true,
		TransactionID: fmt.Sprintf("LYGOS-%d", s.now().UnixMilli()),
	}, nil
}

func (s *Stub) Verify(ctx context.Context, transactionID string) (bool, error) {
	s.log.Info().Str("transaction_id", transactionID).Msg("verifying payment")
	if err := sleep(ctx, s.verifyDelay); err != nil {
		return false, err
	}
	return true, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func methodOf(req model.PaymentRequest) model.PaymentMethod {
	if req.Detail == nil {
		return ""
	}
	return req.Detail.Method()
}
