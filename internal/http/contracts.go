package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/contratpro/internal/http/middleware"
	"github.com/nurpe/contratpro/internal/service"
)

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (h *Handler) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Templates())
}

func (h *Handler) getTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid template id")
		return
	}
	tpl, ok := h.catalog.Template(id)
	if !ok {
		h.handleError(c, service.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            tpl.ID,
		"title":         tpl.Title,
		"description":   tpl.Description,
		"template_data": tpl.NewDraft(),
	})
}

func (h *Handler) listPremiumOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Options())
}

func (h *Handler) listCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Currencies())
}

func (h *Handler) computeSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		badRequest(c, "invalid start_date")
		return
	}
	result, err := h.contracts.Schedule(input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) previewContract(c *gin.Context) {
	input, ok := h.bindPreview(c)
	if !ok {
		return
	}
	doc, err := h.contracts.Preview(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) exportContractPDF(c *gin.Context) {
	input, ok := h.bindPreview(c)
	if !ok {
		return
	}
	file, err := h.contracts.RenderPDF(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, file, pdfContentType)
}

func (h *Handler) exportSchedule(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	draft, err := req.toModel()
	if err != nil {
		badRequest(c, "invalid date format")
		return
	}
	file, err := h.contracts.ExportSchedule(draft)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, file, xlsxContentType)
}

func (h *Handler) listPayments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	ctx := c.Request.Context()
	payments, err := h.contracts.Payments(ctx, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	unlocked, err := h.contracts.UnlockedOptions(ctx, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payments":         payments,
		"unlocked_options": unlocked,
	})
}

func (h *Handler) bindPreview(c *gin.Context) (service.PreviewInput, bool) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return service.PreviewInput{}, false
	}
	draft, err := req.toModel()
	if err != nil {
		badRequest(c, "invalid date format")
		return service.PreviewInput{}, false
	}
	principal, _ := middleware.Principal(c)
	return service.PreviewInput{
		Draft:     draft,
		ThemeID:   req.ThemeID,
		Principal: principal,
	}, true
}

func sendFile(c *gin.Context, file *service.FileResult, contentType string) {
	c.Header("Content-Disposition", "attachment; filename=\""+file.FileName+"\"")
	c.Data(http.StatusOK, contentType, file.Content)
}
