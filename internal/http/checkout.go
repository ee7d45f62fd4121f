package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/contratpro/internal/http/middleware"
	"github.com/nurpe/contratpro/internal/model"
)

type paymentErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// sessionResponse is the client view of a checkout session. Card details
// never leave the server beyond the last four digits.
type sessionResponse struct {
	ID            uuid.UUID             `json:"id"`
	Step          model.CheckoutStep    `json:"step"`
	OptionID      string                `json:"option_id,omitempty"`
	Authenticated bool                  `json:"authenticated"`
	Method        model.PaymentMethod   `json:"method,omitempty"`
	MethodTitle   string                `json:"method_title,omitempty"`
	Provider      string                `json:"provider,omitempty"`
	CardLast4     string                `json:"card_last4,omitempty"`
	DialCode      string                `json:"dial_code,omitempty"`
	DeepLink      string                `json:"deep_link,omitempty"`
	TransactionID string                `json:"transaction_id,omitempty"`
	Error         *paymentErrorResponse `json:"error,omitempty"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func newSessionResponse(session model.CheckoutSession) sessionResponse {
	resp := sessionResponse{
		ID:            session.ID,
		Step:          session.Step,
		OptionID:      session.OptionID,
		Authenticated: session.UserID != nil,
		Method:        session.Method(),
		Provider:      session.Provider(),
		DialCode:      session.DialCode,
		DeepLink:      session.DeepLink,
		TransactionID: session.TransactionID,
		UpdatedAt:     session.UpdatedAt,
	}
	if resp.Method != "" {
		resp.MethodTitle = resp.Method.Title()
	}
	if card, ok := session.Detail.(model.CardDetail); ok {
		resp.CardLast4 = card.Last4()
	}
	if session.ErrorKind != "" {
		resp.Error = &paymentErrorResponse{Kind: session.ErrorKind, Message: session.LastError}
	}
	return resp
}

func (h *Handler) openCheckout(c *gin.Context) {
	session := h.checkout.Open(c.Request.Context())
	c.JSON(http.StatusCreated, newSessionResponse(session))
}

func (h *Handler) getCheckout(c *gin.Context) {
	h.withSession(c, h.checkout.Get)
}

func (h *Handler) selectOption(c *gin.Context) {
	var req selectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.withSession(c, func(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
		return h.checkout.SelectOption(ctx, id, req.OptionID)
	})
}

func (h *Handler) confirmCheckout(c *gin.Context) {
	h.withSession(c, h.checkout.Confirm)
}

func (h *Handler) checkoutAuthenticated(c *gin.Context) {
	h.withSession(c, h.checkout.Authenticated)
}

func (h *Handler) checkoutBack(c *gin.Context) {
	h.withSession(c, h.checkout.Back)
}

func (h *Handler) selectMethod(c *gin.Context) {
	var req selectMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.withSession(c, func(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
		return h.checkout.SelectMethod(ctx, id, req.detail())
	})
}

func (h *Handler) submitCode(c *gin.Context) {
	var req submitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h.withSession(c, func(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error) {
		return h.checkout.SubmitCode(ctx, id, req.Code)
	})
}

func (h *Handler) retryCheckout(c *gin.Context) {
	h.withSession(c, h.checkout.Retry)
}

func (h *Handler) cancelCheckout(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.checkout.Cancel(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// checkoutResult hands the pending checkout result of the caller to exactly
// one reader. By default the request waits for a result to be published;
// with wait=false it returns at once. No result gives 204.
func (h *Handler) checkoutResult(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	if c.Query("wait") == "false" || h.resultWait <= 0 {
		res, found := h.mailbox.Take(principal.UserID)
		if !found {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.resultWait)
	defer cancel()
	res, err := h.mailbox.Wait(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			c.Status(http.StatusNoContent)
			return
		}
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) withSession(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (model.CheckoutSession, error)) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	session, err := fn(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid checkout session id")
		return uuid.Nil, false
	}
	return id, true
}

