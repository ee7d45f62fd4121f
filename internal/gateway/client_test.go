package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contratpro/internal/model"
)

func newTestClient(srv *httptest.Server, retries int) *Client {
	return NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second, RetryMax: retries}, zerolog.Nop())
}

func TestClientInitiate(t *testing.T) {
	var got chargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"TX-1","status":"pending"}`))
	}))
	defer srv.Close()

	req := testRequest()
	res, err := newTestClient(srv, 0).Initiate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.InitiateResult{Success: true, TransactionID: "TX-1"}, res)

	assert.Equal(t, req.Reference.String(), got.Reference)
	assert.Equal(t, "200.00", got.Amount)
	assert.Equal(t, "card", got.Method)
	require.NotNil(t, got.Card)
	assert.Equal(t, "4242424242424242", got.Card.Number)
}

func TestClientInitiateMobileMoney(t *testing.T) {
	var got chargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"TX-2","status":"pending"}`))
	}))
	defer srv.Close()

	req := testRequest()
	req.Detail = model.MobileMoneyDetail{Provider: model.ProviderOrange, Phone: "771234567"}
	req.AuthCode = "4321"
	_, err := newTestClient(srv, 0).Initiate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "mobile-money", got.Method)
	assert.Equal(t, "orange", got.Provider)
	assert.Equal(t, "771234567", got.Phone)
	assert.Equal(t, "4321", got.AuthCode)
	assert.Nil(t, got.Card)
}

func TestClientInitiateDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"message":"insufficient funds"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv, 0).Initiate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient funds", res.Error)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"TX-3","status":"pending"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv, 2).Initiate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "TX-3", res.TransactionID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientServerErrorAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 0).Initiate(context.Background(), testRequest())
	assert.Error(t, err)
}

func TestClientVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/TX-OK":
			_, _ = w.Write([]byte(`{"id":"TX-OK","status":"succeeded"}`))
		case "/payments/TX-PENDING":
			_, _ = w.Write([]byte(`{"id":"TX-PENDING","status":"pending"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv, 0)
	for id, want := range map[string]bool{"TX-OK": true, "TX-PENDING": false, "TX-MISSING": false} {
		ok, err := client.Verify(context.Background(), id)
		require.NoError(t, err, id)
		assert.Equal(t, want, ok, id)
	}
}
