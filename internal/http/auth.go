package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/contratpro/internal/http/middleware"
)

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	session, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) me(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, principal)
}

// logout only acknowledges the request. Tokens are stateless and expire on
// their own; the client drops its copy.
func (h *Handler) logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
