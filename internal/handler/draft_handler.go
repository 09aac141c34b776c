package handler

import (
	"net/http"

	"invoicedesk/internal/service"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type DraftHandler struct {
	draftService service.DraftService
}

func NewDraftHandler(draftService service.DraftService) *DraftHandler {
	return &DraftHandler{draftService: draftService}
}

func (h *DraftHandler) RegisterRoutes(router *gin.RouterGroup) {
	draft := router.Group("/draft")
	{
		draft.GET("", h.GetDraft)
		draft.DELETE("", h.DiscardDraft)
		draft.PUT("/buyer", h.SetBuyer)
		draft.PUT("/notes", h.SetNotes)
		draft.PUT("/adjustments", h.SetAdjustments)
		draft.POST("/items", h.AddItem)
		draft.PUT("/items/:index", h.UpdateItem)
		draft.DELETE("/items/:index", h.RemoveItem)
		draft.POST("/commit", h.Commit)
	}
}

// GetDraft returns the draft with its totals and what is still available
// @Summary      Get draft invoice
// @Tags         draft
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DraftResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/draft [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	draft, err := h.draftService.Get(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, draft)
}

// DiscardDraft handles DELETE /api/draft
// @Summary      Discard draft invoice
// @Tags         draft
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/draft [delete]
func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.draftService.Discard(c.Request.Context(), ownerID); err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, gin.H{"message": "Draft discarded"})
}

// AddItem stages an inventory item, merging with an existing line for the same item
// @Summary      Add draft line
// @Tags         draft
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddDraftItemRequest  true  "Item and quantity"
// @Success      200      {object}  response.Response{data=service.DraftResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response  "Insufficient stock"
// @Router       /api/draft/items [post]
func (h *DraftHandler) AddItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.AddDraftItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draft, err := h.draftService.AddItem(c.Request.Context(), ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, draft)
}

// UpdateItem sets the quantity of one staged line
// @Summary      Update draft line
// @Tags         draft
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        index    path      int                             true  "Line index"
// @Param        payload  body      service.UpdateDraftItemRequest  true  "Quantity"
// @Success      200      {object}  response.Response{data=service.DraftResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response  "Insufficient stock"
// @Router       /api/draft/items/{index} [put]
func (h *DraftHandler) UpdateItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}

	var req service.UpdateDraftItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draft, err := h.draftService.UpdateItem(c.Request.Context(), ownerID, index, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, draft)
}

// RemoveItem handles DELETE /api/draft/items/:index
// @Summary      Remove draft line
// @Tags         draft
// @Security     BearerAuth
// @Produce      json
// @Param        index  path      int  true  "Line index"
// @Success      200    {object}  response.Response{data=service.DraftResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/draft/items/{index} [delete]
func (h *DraftHandler) RemoveItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}

	draft, err := h.draftService.RemoveItem(c.Request.Context(), ownerID, index)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, draft)
}

// SetBuyer handles PUT /api/draft/buyer
// @Summary      Set buyer details
// @Tags         draft
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BuyerRequest  true  "Buyer"
// @Success      200      {object}  response.Response{data=service.DraftResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/draft/buyer [put]
func (h *DraftHandler) SetBuyer(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.BuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draft, err := h.draftService.SetBuyer(c.Request.Context(), ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, draft)
}

// SetNotes handles PUT /api/draft/notes
// @Summary      Set invoice notes
// @Tags         draft
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.NotesRequest  true  "Notes"
// @Success      200      {object}  response.Response{data=service.DraftResponse}
// @Router       /api/draft/notes [put]
func (h *DraftHandler) SetNotes(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draft, err := h.draftService.SetNotes(c.Request.Context(), ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, draft)
}

// SetAdjustments handles PUT /api/draft/adjustments
// @Summary      Set discount and tax
// @Description  Only the fields present are changed
// @Tags         draft
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjustmentsRequest  true  "Discount and tax percent"
// @Success      200      {object}  response.Response{data=service.DraftResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/draft/adjustments [put]
func (h *DraftHandler) SetAdjustments(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.AdjustmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draft, err := h.draftService.SetAdjustments(c.Request.Context(), ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, draft)
}

// Commit turns the draft into an invoice and decrements stock
// @Summary      Commit draft invoice
// @Description  A failure after the invoice header was stored reports the step together with the invoice id and number
// @Tags         draft
// @Security     BearerAuth
// @Produce      json
// @Success      201  {object}  response.Response{data=service.CommitResponse}
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  CommitFailure
// @Router       /api/draft/commit [post]
func (h *DraftHandler) Commit(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.draftService.Commit(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}
