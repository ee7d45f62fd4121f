package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/nurpe/contratpro/internal/model"
)

var ErrGateway = errors.New("payment gateway error")

type ClientConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	RetryMax int
}

// Client charges payments through the provider's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	log     zerolog.Logger
}

func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	log = log.With().Str("component", "gateway").Logger()

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.RetryWaitMin = 200 * time.Millisecond
	httpClient.RetryWaitMax = 2 * time.Second
	httpClient.Logger = leveledLogger{log: log}
	if cfg.Timeout > 0 {
		httpClient.HTTPClient.Timeout = cfg.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		log:     log,
	}
}

type chargeRequest struct {
	Reference   string `json:"reference"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Method      string `json:"method"`
	Provider    string `json:"provider,omitempty"`
	Phone       string `json:"phone,omitempty"`
	AuthCode    string `json:"auth_code,omitempty"`
	Email       string `json:"email,omitempty"`
	Card        *card  `json:"card,omitempty"`
}

type card struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type chargeResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func newChargeRequest(req model.PaymentRequest) chargeRequest {
	body := chargeRequest{
		Reference:   req.Reference.String(),
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Description: req.Description,
		Method:      string(methodOf(req)),
		AuthCode:    req.AuthCode,
	}
	switch d := req.Detail.(type) {
	case model.MobileMoneyDetail:
		body.Provider = string(d.Provider)
		body.Phone = d.Phone
	case model.CardDetail:
		body.Card = &card{Number: d.Normalized(), Expiry: d.Expiry, CVV: d.CVV}
	case model.WalletDetail:
		body.Provider = string(d.Provider)
		body.Email = d.Email
	}
	return body
}

// Initiate creates a charge. A charge refused by the provider is reported
// in the result; transport and server failures are returned as errors.
func (c *Client) Initiate(ctx context.Context, req model.PaymentRequest) (model.InitiateResult, error) {
	payload, err := json.Marshal(newChargeRequest(req))
	if err != nil {
		return model.InitiateResult{}, fmt.Errorf("marshal charge: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return model.InitiateResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.Reference.String())

	var resp chargeResponse
	status, err := c.do(httpReq, &resp)
	if err != nil {
		return model.InitiateResult{}, err
	}
	if status >= 400 && status < 500 {
		msg := resp.Message
		if msg == "" {
			msg = fmt.Sprintf("payment refused (HTTP %d)", status)
		}
		return model.InitiateResult{Success: false, Error: msg}, nil
	}
	if resp.ID == "" {
		return model.InitiateResult{}, fmt.Errorf("%w: charge response without id", ErrGateway)
	}
	if resp.Status == "failed" {
		return model.InitiateResult{Success: false, Error: resp.Message}, nil
	}
	return model.InitiateResult{Success: true, TransactionID: resp.ID}, nil
}

// Verify reports whether the provider considers the charge paid.
func (c *Client) Verify(ctx context.Context, transactionID string) (bool, error) {
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+url.PathEscape(transactionID), nil)
	if err != nil {
		return false, err
	}

	var resp chargeResponse
	status, err := c.do(httpReq, &resp)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if status >= 400 {
		return false, fmt.Errorf("%w: verify returned HTTP %d", ErrGateway, status)
	}
	return resp.Status == "succeeded", nil
}

// do sends the request and decodes the body into out. Server errors left
// after retries are returned as ErrGateway.
func (c *Client) do(req *retryablehttp.Request, out any) (int, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode >= 500 {
		c.log.Error().Int("status", resp.StatusCode).Str("url", req.URL.String()).Msg("gateway server error")
		return resp.StatusCode, fmt.Errorf("%w: HTTP %d", ErrGateway, resp.StatusCode)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
		}
	}
	return resp.StatusCode, nil
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.Error().Fields(kv).Msg(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.Info().Fields(kv).Msg(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.Warn().Fields(kv).Msg(msg) }
