package handler

import (
	"bytes"
	"net/http"

	"invoicedesk/internal/document"
	"invoicedesk/internal/service"
	"invoicedesk/pkg/pagination"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id/status", h.UpdateStatus)
		invoices.GET("/:id/document", h.GetDocument)
		invoices.GET("/:id/print", h.PrintInvoice)
	}
}

// ListInvoices handles GET /api/invoices
// @Summary      List invoices
// @Description  Lists invoices newest first, optionally filtered by status
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "draft, sent or paid"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      400     {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	invoices, total, err := h.invoiceService.List(c.Request.Context(), ownerID, c.Query("status"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, p.Body("invoices", invoices, total))
}

// GetInvoice handles GET /api/invoices/:id
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, inv)
}

// UpdateStatus handles PUT /api/invoices/:id/status
// @Summary      Change invoice status
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                              true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceStatusRequest  true  "New status"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/{id}/status [put]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := h.invoiceService.UpdateStatus(c.Request.Context(), ownerID, id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, inv)
}

// GetDocument returns the invoice with every value formatted for display
// @Summary      Get invoice document
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=document.View}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/document [get]
func (h *InvoiceHandler) GetDocument(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.invoiceService.Document(c.Request.Context(), ownerID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, view)
}

// PrintInvoice renders the printable HTML page
// @Summary      Print invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      html
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {string}  string  "HTML document"
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/print [get]
func (h *InvoiceHandler) PrintInvoice(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.invoiceService.Document(c.Request.Context(), ownerID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := document.RenderHTML(&buf, view); err != nil {
		response.Fail(c, http.StatusInternalServerError, "Failed to render invoice: "+err.Error())
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
