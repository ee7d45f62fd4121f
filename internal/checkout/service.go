// Package checkout drives the purchase of a premium option: option choice,
// authentication gate, payment method, optional out-of-band authorization
// code and settlement with the payment gateway.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/contratpro/internal/model"
)

const defaultSettleTimeout = 30 * time.Second

type Store interface {
	Get(id uuid.UUID) (model.CheckoutSession, bool)
	Save(session model.CheckoutSession)
	Delete(id uuid.UUID)
}

type Options interface {
	Option(id string) (model.PremiumOption, bool)
}

// IdentityProvider reports who is signed in for the current call, nil when
// nobody is.
type IdentityProvider interface {
	Current(ctx context.Context) (*model.Principal, error)
}

type Initiator interface {
	Initiate(ctx context.Context, req model.PaymentRequest) (model.InitiateResult, error)
}

type Verifier interface {
	Verify(ctx context.Context, transactionID string) (bool, error)
}

type Recorder interface {
	CreatePayment(ctx context.Context, record *model.PaymentRecord) error
	UpdatePayment(ctx context.Context, record *model.PaymentRecord) error
}

type Config struct {
	SettleTimeout time.Duration
	Currency      string
}

type Service struct {
	mu        sync.Mutex
	store     Store
	options   Options
	identity  IdentityProvider
	initiator Initiator
	verifier  Verifier
	recorder  Recorder
	mailbox   *Mailbox
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
}

type Deps struct {
	Store     Store
	Options   Options
	Identity  IdentityProvider
	Initiator Initiator
	Verifier  Verifier
	Recorder  Recorder
	Mailbox   *Mailbox
}

func NewService(deps Deps, cfg Config, log zerolog.Logger) *Service {
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = defaultSettleTimeout
	}
	return &Service{
		store:     deps.Store,
		options:   deps.Options,
		identity:  deps.Identity,
		initiator: deps.Initiator,
		verifier:  deps.Verifier,
		recorder:  deps.Recorder,
		mailbox:   deps.Mailbox,
		cfg:       cfg,
		log:       log.With().Str("component", "checkout").Logger(),
		now:       time.Now,
	}
}

// Open starts a new checkout session waiting for an option.
func (s *Service) Open(ctx context.Context) model.CheckoutSession {
	now := s.now()
	session := model.CheckoutSession{
		ID:        uuid.New(),
		Step:      model.StepSelectOption,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.Save(session)
	s.log.Debug().Str("session_id", session.ID.String()).Msg("checkout opened")
	return session
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
	return s.load(ctx, id)
}

// load reads a session. Once a session is bound to a user, it is invisible
// to every other caller.
func (s *Service) load(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
	session, ok := s.store.Get(id)
	if !ok {
		return model.CheckoutSession{}, ErrSessionNotFound
	}
	if session.UserID == nil {
		return session, nil
	}
	principal, err := s.identity.Current(ctx)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	if principal == nil || principal.UserID != *session.UserID {
		return model.CheckoutSession{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) SelectOption(ctx context.Context, id uuid.UUID, optionID string) (model.CheckoutSession, error) {
	return s.update(ctx, id, func(session *model.CheckoutSession) error {
		if session.Step != model.StepSelectOption {
			return illegal(session.Step, "select option")
		}
		if _, ok := s.options.Option(optionID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownOption, optionID)
		}
		session.OptionID = optionID
		return nil
	})
}

// Confirm leaves option selection. Signed-in callers go straight to method
// selection, others are sent to the authentication gate.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
	principal, err := s.identity.Current(ctx)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	return s.update(ctx, id, func(session *model.CheckoutSession) error {
		if session.Step != model.StepSelectOption {
			return illegal(session.Step, "confirm")
		}
		if session.OptionID == "" {
			return ErrOptionRequired
		}
		if principal == nil {
			s.transition(session, model.StepAuthenticate)
			return nil
		}
		userID := principal.UserID
		session.UserID = &userID
		s.transition(session, model.StepSelectMethod)
		return nil
	})
}

// Authenticated resumes a session held at the authentication gate once the
// caller has signed in or registered.
func (s *Service) Authenticated(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
	principal, err := s.identity.Current(ctx)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	return s.update(ctx, id, func(session *model.CheckoutSession) error {
		if session.Step != model.StepAuthenticate {
			return illegal(session.Step, "authenticate")
		}
		if principal == nil {
			return ErrNotAuthenticated
		}
		userID := principal.UserID
		session.UserID = &userID
		s.transition(session, model.StepSelectMethod)
		return nil
	})
}

// Back returns from the authentication gate to option selection.
func (s *Service) Back(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
	return s.update(ctx, id, func(session *model.CheckoutSession) error {
		if session.Step != model.StepAuthenticate {
			return illegal(session.Step, "back")
		}
		s.transition(session, model.StepSelectOption)
		return nil
	})
}

// SelectMethod records how the caller pays. Mobile money providers that
// issue an authorization code park the session until the code is
// submitted; every other method is settled before returning.
func (s *Service) SelectMethod(ctx context.Context, id uuid.UUID, detail model.MethodDetail) (model.CheckoutSession, error) {
	if detail == nil {
		return model.CheckoutSession{}, fmt.Errorf("%w: payment method is required", ErrMethodDetail)
	}
	if err := detail.Validate(); err != nil {
		return model.CheckoutSession{}, fmt.Errorf("%w: %v", ErrMethodDetail, err)
	}

	settle := false
	session, err := s.update(ctx, id, func(session *model.CheckoutSession) error {
		if session.Step != model.StepSelectMethod {
			return illegal(session.Step, "select method")
		}
		if session.OptionID == "" {
			return ErrOptionRequired
		}
		if session.UserID == nil {
			return ErrNotAuthenticated
		}
		option, ok := s.options.Option(session.OptionID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownOption, session.OptionID)
		}

		session.Detail = detail
		session.DialCode = ""
		session.DeepLink = ""
		if mobile, ok := detail.(model.MobileMoneyDetail); ok {
			if mobile.Provider.RequiresCode() {
				session.DialCode = mobile.Provider.DialCode()
				s.transition(session, model.StepAwaitExternalCode)
				return nil
			}
			session.DeepLink = mobile.DeepLink(option.Price.String())
		}
		s.transition(session, model.StepSettling)
		settle = true
		return nil
	})
	if err != nil || !settle {
		return session, err
	}
	return s.settle(ctx, session)
}

// SubmitCode settles a mobile money payment with the code the payer got by
// dialing the provider's code.
func (s *Service) SubmitCode(ctx context.Context, id uuid.UUID, code string) (model.CheckoutSession, error) {
	code = strings.TrimSpace(code)
	session, err := s.update(ctx, id, func(session *model.CheckoutSession) error {
		if session.Step != model.StepAwaitExternalCode {
			return illegal(session.Step, "submit code")
		}
		if code == "" {
			return ErrCodeRequired
		}
		session.AuthCode = code
		s.transition(session, model.StepSettling)
		return nil
	})
	if err != nil {
		return session, err
	}
	return s.settle(ctx, session)
}

// Retry reopens method selection after a failed settlement. The selected
// option is kept.
func (s *Service) Retry(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
	return s.update(ctx, id, func(session *model.CheckoutSession) error {
		if session.Step != model.StepFailed {
			return illegal(session.Step, "retry")
		}
		session.Detail = nil
		session.DialCode = ""
		session.DeepLink = ""
		session.AuthCode = ""
		session.TransactionID = ""
		session.ErrorKind = ""
		session.LastError = ""
		s.transition(session, model.StepSelectMethod)
		return nil
	})
}

// Cancel drops the session. A session being settled cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if session.Step == model.StepSettling {
		return ErrSettling
	}
	s.store.Delete(id)
	s.log.Debug().Str("session_id", id.String()).Str("step", session.Step.String()).Msg("checkout cancelled")
	return nil
}

func (s *Service) update(ctx context.Context, id uuid.UUID, fn func(session *model.CheckoutSession) error) (model.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return model.CheckoutSession{}, err
	}
	if err := fn(&session); err != nil {
		return model.CheckoutSession{}, err
	}
	session.UpdatedAt = s.now()
	s.store.Save(session)
	return session, nil
}

func (s *Service) transition(session *model.CheckoutSession, to model.CheckoutStep) {
	s.log.Debug().
		Str("session_id", session.ID.String()).
		Str("from", session.Step.String()).
		Str("to", to.String()).
		Msg("checkout transition")
	session.Step = to
}

func illegal(step model.CheckoutStep, action string) error {
	return fmt.Errorf("%w: cannot %s in step %s", ErrIllegalTransition, action, step)
}

// settle runs the initiate and verify round trip for a session already
// moved to the settling step. It is not bound to the caller's cancellation,
// only to the settle timeout.
func (s *Service) settle(ctx context.Context, session model.CheckoutSession) (model.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SettleTimeout)
	defer cancel()

	option, _ := s.options.Option(session.OptionID)
	record := &model.PaymentRecord{
		ID:          uuid.New(),
		UserID:      *session.UserID,
		SessionID:   session.ID,
		OptionID:    option.ID,
		Method:      session.Method(),
		Provider:    session.Provider(),
		Amount:      option.Price,
		Currency:    s.cfg.Currency,
		Description: fmt.Sprintf("ContratPro - %s", option.Name),
		Status:      model.PaymentStatusPending,
		CreatedAt:   s.now(),
	}
	record.UpdatedAt = record.CreatedAt
	if err := s.recorder.CreatePayment(ctx, record); err != nil {
		return s.fail(ctx, session, nil, &PaymentError{Kind: KindUnknown, Message: "payment could not be recorded"}, err)
	}

	txID, perr := s.charge(ctx, session, record)
	if perr != nil {
		return s.fail(ctx, session, record, perr, nil)
	}
	return s.succeed(ctx, session, record, txID)
}

func (s *Service) charge(ctx context.Context, session model.CheckoutSession, record *model.PaymentRecord) (string, *PaymentError) {
	result, err := s.initiator.Initiate(ctx, model.PaymentRequest{
		Reference:   record.ID,
		Amount:      record.Amount,
		Description: record.Description,
		Currency:    record.Currency,
		Detail:      session.Detail,
		AuthCode:    session.AuthCode,
	})
	if err != nil {
		return "", collaboratorError(ctx, KindInitiationFailed, err)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "payment failed"
		}
		return "", &PaymentError{Kind: KindInitiationFailed, Message: msg}
	}
	record.TransactionID = &result.TransactionID

	verified, err := s.verifier.Verify(ctx, result.TransactionID)
	if err != nil {
		return result.TransactionID, collaboratorError(ctx, KindVerificationFailed, err)
	}
	if !verified {
		return result.TransactionID, &PaymentError{Kind: KindVerificationFailed, Message: "payment verification failed"}
	}
	return result.TransactionID, nil
}

func collaboratorError(ctx context.Context, kind PaymentErrorKind, err error) *PaymentError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &PaymentError{Kind: KindTimeout, Message: "payment gateway did not answer in time"}
	}
	var perr *PaymentError
	if errors.As(err, &perr) {
		return perr
	}
	return &PaymentError{Kind: kind, Message: err.Error()}
}

func (s *Service) succeed(ctx context.Context, session model.CheckoutSession, record *model.PaymentRecord, txID string) (model.CheckoutSession, error) {
	record.Status = model.PaymentStatusSucceeded
	record.UpdatedAt = s.now()
	if err := s.recorder.UpdatePayment(context.WithoutCancel(ctx), record); err != nil {
		s.log.Error().Err(err).Str("payment_id", record.ID.String()).Msg("failed to record settled payment")
	}

	s.mu.Lock()
	session.TransactionID = txID
	session.UpdatedAt = record.UpdatedAt
	s.transition(&session, model.StepSucceeded)
	s.store.Delete(session.ID)
	s.mu.Unlock()

	s.mailbox.Publish(*session.UserID, Result{
		SessionID:     session.ID,
		OptionID:      session.OptionID,
		TransactionID: txID,
		CompletedAt:   record.UpdatedAt,
	})
	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("option_id", session.OptionID).
		Str("transaction_id", txID).
		Msg("premium option unlocked")
	return session, nil
}

func (s *Service) fail(ctx context.Context, session model.CheckoutSession, record *model.PaymentRecord, perr *PaymentError, cause error) (model.CheckoutSession, error) {
	event := s.log.Warn().Str("session_id", session.ID.String()).Str("kind", string(perr.Kind))
	if cause != nil {
		event = event.Err(cause)
	}
	event.Msg(perr.Message)

	if record != nil {
		kind, msg := string(perr.Kind), perr.Message
		record.Status = model.PaymentStatusFailed
		record.ErrorKind = &kind
		record.ErrorMessage = &msg
		record.UpdatedAt = s.now()
		if err := s.recorder.UpdatePayment(context.WithoutCancel(ctx), record); err != nil {
			s.log.Error().Err(err).Str("payment_id", record.ID.String()).Msg("failed to record payment failure")
		}
		if record.TransactionID != nil {
			session.TransactionID = *record.TransactionID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session.ErrorKind = string(perr.Kind)
	session.LastError = perr.Message
	session.UpdatedAt = s.now()
	s.transition(&session, model.StepFailed)
	s.store.Save(session)
	return session, nil
}
