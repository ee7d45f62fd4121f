package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contratpro/internal/catalog"
	"github.com/nurpe/contratpro/internal/model"
)

type fakeIdentity struct {
	principal *model.Principal
	err       error
}

func (f *fakeIdentity) Current(context.Context) (*model.Principal, error) {
	return f.principal, f.err
}

type fakeGateway struct {
	mu        sync.Mutex
	calls     []string
	requests  []model.PaymentRequest
	initiate  func(ctx context.Context, req model.PaymentRequest) (model.InitiateResult, error)
	verify    func(ctx context.Context, txID string) (bool, error)
	verifiedT []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		initiate: func(context.Context, model.PaymentRequest) (model.InitiateResult, error) {
			return model.InitiateResult{Success: true, TransactionID: "TX-1"}, nil
		},
		verify: func(context.Context, string) (bool, error) { return true, nil },
	}
}

func (g *fakeGateway) Initiate(ctx context.Context, req model.PaymentRequest) (model.InitiateResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, "initiate")
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.initiate(ctx, req)
}

func (g *fakeGateway) Verify(ctx context.Context, txID string) (bool, error) {
	g.mu.Lock()
	g.calls = append(g.calls, "verify")
	g.verifiedT = append(g.verifiedT, txID)
	g.mu.Unlock()
	return g.verify(ctx, txID)
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records map[uuid.UUID]model.PaymentRecord
	failOn  error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{records: make(map[uuid.UUID]model.PaymentRecord)}
}

func (r *fakeRecorder) CreatePayment(_ context.Context, record *model.PaymentRecord) error {
	if r.failOn != nil {
		return r.failOn
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = *record
	return nil
}

func (r *fakeRecorder) UpdatePayment(_ context.Context, record *model.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = *record
	return nil
}

func (r *fakeRecorder) Only(t *testing.T) model.PaymentRecord {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.records, 1)
	for _, rec := range r.records {
		return rec
	}
	return model.PaymentRecord{}
}

type harness struct {
	svc      *Service
	identity *fakeIdentity
	gateway  *fakeGateway
	recorder *fakeRecorder
	mailbox  *Mailbox
	store    *CacheStore
	user     model.Principal
}

func newHarness(t *testing.T, settleTimeout time.Duration) *harness {
	t.Helper()
	h := &harness{
		identity: &fakeIdentity{},
		gateway:  newFakeGateway(),
		recorder: newFakeRecorder(),
		mailbox:  NewMailbox(),
		store:    NewCacheStore(time.Minute),
		user:     model.Principal{UserID: uuid.New(), Email: "awa@example.com"},
	}
	h.svc = NewService(Deps{
		Store:     h.store,
		Options:   catalog.New(decimal.NewFromInt(200)),
		Identity:  h.identity,
		Initiator: h.gateway,
		Verifier:  h.gateway,
		Recorder:  h.recorder,
		Mailbox:   h.mailbox,
	}, Config{SettleTimeout: settleTimeout, Currency: "XOF"}, zerolog.Nop())
	return h
}

func (h *harness) signIn() {
	p := h.user
	h.identity.principal = &p
}

// atSelectMethod opens a session and walks it to method selection.
func (h *harness) atSelectMethod(t *testing.T) model.CheckoutSession {
	t.Helper()
	h.signIn()
	ctx := context.Background()
	session := h.svc.Open(ctx)
	_, err := h.svc.SelectOption(ctx, session.ID, "color-blue")
	require.NoError(t, err)
	session, err = h.svc.Confirm(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, model.StepSelectMethod, session.Step)
	return session
}

var validCard = model.CardDetail{Number: "4111 1111 1111 1111", Expiry: "12/29", CVV: "123"}

func TestConfirmUnauthenticatedGoesToAuthenticate(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()

	session := h.svc.Open(ctx)
	assert.Equal(t, model.StepSelectOption, session.Step)

	_, err := h.svc.SelectOption(ctx, session.ID, "color-green")
	require.NoError(t, err)

	session, err = h.svc.Confirm(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepAuthenticate, session.Step)
	assert.Nil(t, session.UserID)

	_, err = h.svc.Authenticated(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	session, err = h.svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepAuthenticate, session.Step)

	h.signIn()
	session, err = h.svc.Authenticated(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepSelectMethod, session.Step)
	require.NotNil(t, session.UserID)
	assert.Equal(t, h.user.UserID, *session.UserID)
	assert.Equal(t, "color-green", session.OptionID)
}

func TestConfirmAuthenticatedSkipsGate(t *testing.T) {
	h := newHarness(t, time.Second)
	session := h.atSelectMethod(t)
	assert.Equal(t, h.user.UserID, *session.UserID)
}

func TestConfirmRequiresOption(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()
	session := h.svc.Open(ctx)

	_, err := h.svc.Confirm(ctx, session.ID)
	assert.ErrorIs(t, err, ErrOptionRequired)

	_, err = h.svc.SelectOption(ctx, session.ID, "color-gold")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestBackFromAuthenticate(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()
	session := h.svc.Open(ctx)
	_, err := h.svc.SelectOption(ctx, session.ID, "color-blue")
	require.NoError(t, err)
	_, err = h.svc.Confirm(ctx, session.ID)
	require.NoError(t, err)

	session, err = h.svc.Back(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepSelectOption, session.Step)
	assert.Equal(t, "color-blue", session.OptionID)

	_, err = h.svc.Back(ctx, session.ID)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestMethodBeforeOptionIsRejected(t *testing.T) {
	h := newHarness(t, time.Second)
	h.signIn()
	ctx := context.Background()
	session := h.svc.Open(ctx)

	_, err := h.svc.SelectMethod(ctx, session.ID, validCard)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Empty(t, h.gateway.Calls())
}

func TestCardPaymentSucceeds(t *testing.T) {
	h := newHarness(t, time.Second)
	session := h.atSelectMethod(t)
	ctx := context.Background()

	session, err := h.svc.SelectMethod(ctx, session.ID, validCard)
	require.NoError(t, err)
	assert.Equal(t, model.StepSucceeded, session.Step)
	assert.Equal(t, "TX-1", session.TransactionID)
	assert.Equal(t, []string{"initiate", "verify"}, h.gateway.Calls())

	req := h.gateway.requests[0]
	assert.True(t, req.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "XOF", req.Currency)
	assert.Equal(t, "ContratPro - Thème Bleu Professionnel", req.Description)

	_, err = h.svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	res, ok := h.mailbox.Take(h.user.UserID)
	require.True(t, ok)
	assert.Equal(t, "color-blue", res.OptionID)
	assert.Equal(t, "TX-1", res.TransactionID)
	_, ok = h.mailbox.Take(h.user.UserID)
	assert.False(t, ok)

	rec := h.recorder.Only(t)
	assert.Equal(t, model.PaymentStatusSucceeded, rec.Status)
	assert.Equal(t, model.MethodCard, rec.Method)
	require.NotNil(t, rec.TransactionID)
	assert.Equal(t, "TX-1", *rec.TransactionID)
}

func TestSettlementFailures(t *testing.T) {
	tests := []struct {
		name      string
		initiate  func(context.Context, model.PaymentRequest) (model.InitiateResult, error)
		verify    func(context.Context, string) (bool, error)
		wantKind  PaymentErrorKind
		wantMsg   string
		wantCalls []string
	}{
		{
			name: "initiation declined",
			initiate: func(context.Context, model.PaymentRequest) (model.InitiateResult, error) {
				return model.InitiateResult{Success: false, Error: "insufficient funds"}, nil
			},
			wantKind:  KindInitiationFailed,
			wantMsg:   "insufficient funds",
			wantCalls: []string{"initiate"},
		},
		{
			name: "initiation error",
			initiate: func(context.Context, model.PaymentRequest) (model.InitiateResult, error) {
				return model.InitiateResult{}, errors.New("connection refused")
			},
			wantKind:  KindInitiationFailed,
			wantMsg:   "connection refused",
			wantCalls: []string{"initiate"},
		},
		{
			name:      "verification rejected",
			verify:    func(context.Context, string) (bool, error) { return false, nil },
			wantKind:  KindVerificationFailed,
			wantMsg:   "payment verification failed",
			wantCalls: []string{"initiate", "verify"},
		},
		{
			name:      "verification error",
			verify:    func(context.Context, string) (bool, error) { return false, errors.New("gateway 502") },
			wantKind:  KindVerificationFailed,
			wantMsg:   "gateway 502",
			wantCalls: []string{"initiate", "verify"},
		},
		{
			name: "gateway stalls",
			initiate: func(ctx context.Context, _ model.PaymentRequest) (model.InitiateResult, error) {
				<-ctx.Done()
				return model.InitiateResult{}, ctx.Err()
			},
			wantKind:  KindTimeout,
			wantCalls: []string{"initiate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 50*time.Millisecond)
			if tt.initiate != nil {
				h.gateway.initiate = tt.initiate
			}
			if tt.verify != nil {
				h.gateway.verify = tt.verify
			}
			session := h.atSelectMethod(t)
			ctx := context.Background()

			session, err := h.svc.SelectMethod(ctx, session.ID, validCard)
			require.NoError(t, err)
			assert.Equal(t, model.StepFailed, session.Step)
			assert.Equal(t, string(tt.wantKind), session.ErrorKind)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, session.LastError)
			}
			assert.NotEmpty(t, session.LastError)
			assert.Equal(t, tt.wantCalls, h.gateway.Calls())

			_, ok := h.mailbox.Take(h.user.UserID)
			assert.False(t, ok, "no result may be published on failure")

			rec := h.recorder.Only(t)
			assert.Equal(t, model.PaymentStatusFailed, rec.Status)

			stored, err := h.svc.Get(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StepFailed, stored.Step)
		})
	}
}

func TestRecorderFailureFailsAttempt(t *testing.T) {
	h := newHarness(t, time.Second)
	h.recorder.failOn = errors.New("db down")
	session := h.atSelectMethod(t)

	session, err := h.svc.SelectMethod(context.Background(), session.ID, validCard)
	require.NoError(t, err)
	assert.Equal(t, model.StepFailed, session.Step)
	assert.Equal(t, string(KindUnknown), session.ErrorKind)
	assert.Empty(t, h.gateway.Calls())
}

func TestRetryKeepsOption(t *testing.T) {
	h := newHarness(t, time.Second)
	h.gateway.verify = func(context.Context, string) (bool, error) { return false, nil }
	session := h.atSelectMethod(t)
	ctx := context.Background()

	session, err := h.svc.SelectMethod(ctx, session.ID, validCard)
	require.NoError(t, err)
	require.Equal(t, model.StepFailed, session.Step)

	session, err = h.svc.Retry(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepSelectMethod, session.Step)
	assert.Equal(t, "color-blue", session.OptionID)
	assert.Nil(t, session.Detail)
	assert.Empty(t, session.LastError)

	_, err = h.svc.Retry(ctx, session.ID)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	h.gateway.verify = func(context.Context, string) (bool, error) { return true, nil }
	session, err = h.svc.SelectMethod(ctx, session.ID, model.WalletDetail{Provider: model.WalletPayPal, Email: "awa@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.StepSucceeded, session.Step)
}

func TestMobileMoneyCodeFlow(t *testing.T) {
	providers := map[model.MobileProvider]string{
		model.ProviderOrange: "#144*391#",
		model.ProviderFree:   "#555*4*3#",
		model.ProviderMTN:    "#126#",
	}
	for provider, dial := range providers {
		t.Run(string(provider), func(t *testing.T) {
			h := newHarness(t, time.Second)
			session := h.atSelectMethod(t)
			ctx := context.Background()

			session, err := h.svc.SelectMethod(ctx, session.ID, model.MobileMoneyDetail{Provider: provider, Phone: "+221 77 000 00 00"})
			require.NoError(t, err)
			assert.Equal(t, model.StepAwaitExternalCode, session.Step)
			assert.Equal(t, dial, session.DialCode)
			assert.Empty(t, h.gateway.Calls())

			_, err = h.svc.SubmitCode(ctx, session.ID, "  ")
			assert.ErrorIs(t, err, ErrCodeRequired)
			stored, err := h.svc.Get(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StepAwaitExternalCode, stored.Step)
			assert.Empty(t, h.gateway.Calls())

			session, err = h.svc.SubmitCode(ctx, session.ID, "482913")
			require.NoError(t, err)
			assert.Equal(t, model.StepSucceeded, session.Step)
			require.Len(t, h.gateway.requests, 1)
			assert.Equal(t, "482913", h.gateway.requests[0].AuthCode)
		})
	}
}

func TestWaveBypassesCode(t *testing.T) {
	h := newHarness(t, time.Second)
	session := h.atSelectMethod(t)

	session, err := h.svc.SelectMethod(context.Background(), session.ID, model.MobileMoneyDetail{Provider: model.ProviderWave, Phone: "771234567"})
	require.NoError(t, err)
	assert.Equal(t, model.StepSucceeded, session.Step)
	assert.Equal(t, "wave://payment?phone=771234567&amount=200", session.DeepLink)
	assert.Empty(t, session.DialCode)
}

func TestMobileMoneyRequiresPhone(t *testing.T) {
	h := newHarness(t, time.Second)
	session := h.atSelectMethod(t)
	ctx := context.Background()

	_, err := h.svc.SelectMethod(ctx, session.ID, model.MobileMoneyDetail{Provider: model.ProviderOrange})
	assert.ErrorIs(t, err, ErrMethodDetail)

	_, err = h.svc.SelectMethod(ctx, session.ID, nil)
	assert.ErrorIs(t, err, ErrMethodDetail)

	stored, err := h.svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepSelectMethod, stored.Step)
	assert.Empty(t, h.gateway.Calls())
}

func TestCancel(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()

	session := h.svc.Open(ctx)
	require.NoError(t, h.svc.Cancel(ctx, session.ID))
	_, err := h.svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, h.svc.Cancel(ctx, session.ID), ErrSessionNotFound)

	session = h.atSelectMethod(t)
	session, err = h.svc.SelectMethod(ctx, session.ID, model.MobileMoneyDetail{Provider: model.ProviderMTN, Phone: "670000000"})
	require.NoError(t, err)
	require.NoError(t, h.svc.Cancel(ctx, session.ID))
}

func TestCancelDuringSettlementIsRejected(t *testing.T) {
	h := newHarness(t, time.Second)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.gateway.initiate = func(context.Context, model.PaymentRequest) (model.InitiateResult, error) {
		close(entered)
		<-release
		return model.InitiateResult{Success: true, TransactionID: "TX-9"}, nil
	}
	session := h.atSelectMethod(t)
	ctx := context.Background()

	done := make(chan model.CheckoutSession, 1)
	go func() {
		s, _ := h.svc.SelectMethod(ctx, session.ID, validCard)
		done <- s
	}()

	<-entered
	stored, err := h.svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepSettling, stored.Step)
	assert.ErrorIs(t, h.svc.Cancel(ctx, session.ID), ErrSettling)

	close(release)
	final := <-done
	assert.Equal(t, model.StepSucceeded, final.Step)
}

func TestCallerCancellationDoesNotAbortSettlement(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	h.gateway.initiate = func(c context.Context, _ model.PaymentRequest) (model.InitiateResult, error) {
		cancel()
		if c.Err() != nil {
			return model.InitiateResult{}, c.Err()
		}
		return model.InitiateResult{Success: true, TransactionID: "TX-2"}, nil
	}
	h.signIn()
	session := h.svc.Open(ctx)
	_, err := h.svc.SelectOption(ctx, session.ID, "color-purple")
	require.NoError(t, err)
	_, err = h.svc.Confirm(ctx, session.ID)
	require.NoError(t, err)

	session, err = h.svc.SelectMethod(ctx, session.ID, validCard)
	require.NoError(t, err)
	assert.Equal(t, model.StepSucceeded, session.Step)
}

func TestBoundSessionIsPrivate(t *testing.T) {
	h := newHarness(t, time.Second)
	session := h.atSelectMethod(t)
	ctx := context.Background()

	h.identity.principal = &model.Principal{UserID: uuid.New(), Email: "other@example.com"}
	_, err := h.svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = h.svc.SelectMethod(ctx, session.ID, validCard)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, h.svc.Cancel(ctx, session.ID), ErrSessionNotFound)

	h.identity.principal = nil
	_, err = h.svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	h.signIn()
	stored, err := h.svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepSelectMethod, stored.Step)
	assert.Empty(t, h.gateway.calls)
}
