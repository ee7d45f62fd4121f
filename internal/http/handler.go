package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/contratpro/internal/auth"
	"github.com/nurpe/contratpro/internal/catalog"
	"github.com/nurpe/contratpro/internal/checkout"
	"github.com/nurpe/contratpro/internal/service"
)

type Handler struct {
	contracts  *service.ContractService
	checkout   *checkout.Service
	auth       *auth.Service
	catalog    *catalog.Catalog
	mailbox    *checkout.Mailbox
	resultWait time.Duration
	log        zerolog.Logger
}

type Deps struct {
	Contracts *service.ContractService
	Checkout  *checkout.Service
	Auth      *auth.Service
	Catalog   *catalog.Catalog
	Mailbox   *checkout.Mailbox
}

func NewHandler(deps Deps, resultWait time.Duration, log zerolog.Logger) *Handler {
	return &Handler{
		contracts:  deps.Contracts,
		checkout:   deps.Checkout,
		auth:       deps.Auth,
		catalog:    deps.Catalog,
		mailbox:    deps.Mailbox,
		resultWait: resultWait,
		log:        log,
	}
}

func (h *Handler) Register(router *gin.Engine, requireAuth, optionalAuth gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.GET("/templates", h.listTemplates)
	api.GET("/templates/:id", h.getTemplate)
	api.GET("/premium-options", h.listPremiumOptions)
	api.GET("/currencies", h.listCurrencies)
	api.POST("/schedule", h.computeSchedule)
	api.POST("/contracts/schedule.xlsx", h.exportSchedule)

	optional := api.Group("/")
	optional.Use(optionalAuth)
	optional.POST("/contracts/preview", h.previewContract)
	optional.POST("/checkout", h.openCheckout)
	optional.GET("/checkout/:id", h.getCheckout)
	optional.PUT("/checkout/:id/option", h.selectOption)
	optional.POST("/checkout/:id/confirm", h.confirmCheckout)
	optional.POST("/checkout/:id/authenticated", h.checkoutAuthenticated)
	optional.POST("/checkout/:id/back", h.checkoutBack)
	optional.PUT("/checkout/:id/method", h.selectMethod)
	optional.POST("/checkout/:id/code", h.submitCode)
	optional.POST("/checkout/:id/retry", h.retryCheckout)
	optional.DELETE("/checkout/:id", h.cancelCheckout)

	protected := api.Group("/")
	protected.Use(requireAuth)
	protected.GET("/auth/me", h.me)
	protected.POST("/auth/logout", h.logout)
	protected.GET("/checkout/result", h.checkoutResult)
	protected.GET("/payments", h.listPayments)
	protected.POST("/contracts/preview.pdf", h.exportContractPDF)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var authErr *auth.Error
	switch {
	case errors.As(err, &authErr):
		h.handleAuthError(c, authErr)
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, checkout.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, checkout.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, checkout.ErrIllegalTransition), errors.Is(err, checkout.ErrSettling):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, checkout.ErrOptionRequired),
		errors.Is(err, checkout.ErrUnknownOption),
		errors.Is(err, checkout.ErrMethodDetail),
		errors.Is(err, checkout.ErrCodeRequired):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) handleAuthError(c *gin.Context, err *auth.Error) {
	status := http.StatusInternalServerError
	switch err.Kind {
	case auth.KindEmailInUse:
		status = http.StatusConflict
	case auth.KindWeakSecret:
		status = http.StatusUnprocessableEntity
	case auth.KindInvalidCredential:
		status = http.StatusUnauthorized
	default:
		h.log.Error().Err(err).Msg("authentication failed")
	}
	c.JSON(status, errorResponse{Error: err.Message, Code: string(err.Kind)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
