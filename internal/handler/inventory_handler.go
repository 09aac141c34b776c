package handler

import (
	"net/http"

	"invoicedesk/internal/service"
	"invoicedesk/pkg/pagination"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// RegisterRoutes expects a group that already requires a signed in user.
func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory")
	{
		inventory.GET("", h.ListInventory)
		inventory.POST("", h.CreateItem)
		inventory.PUT("/:id", h.UpdateItem)
		inventory.DELETE("/:id", h.DeleteItem)
		inventory.GET("/:id/movements", h.ListMovements)
	}
}

// ListInventory handles GET /api/inventory
// @Summary      List inventory
// @Description  Lists the caller's inventory, newest first. q keeps items whose name contains it, ignoring case.
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        q      query     string  false  "Name search"
// @Success      200    {object}  response.Response{data=[]service.InventoryResponse}
// @Failure      401    {object}  response.Response
// @Failure      500    {object}  response.Response
// @Router       /api/inventory [get]
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.inventoryService.Search(c.Request.Context(), ownerID, c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, items)
}

// CreateItem creates a new inventory entry
// @Summary      Create inventory item
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInventoryRequest  true  "Create Item Payload"
// @Success      201      {object}  response.Response{data=service.InventoryResponse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/inventory [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.inventoryService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateItem applies a partial update
// @Summary      Update inventory item
// @Description  Changes only the fields present in the payload
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Item ID"
// @Param        payload  body      service.UpdateInventoryRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.InventoryResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/inventory/{id} [put]
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.inventoryService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, item)
}

// DeleteItem handles DELETE /api/inventory/:id
// @Summary      Delete inventory item
// @Description  Invoices keep their copy of the item's name, unit and price
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/inventory/{id} [delete]
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.Delete(c.Request.Context(), ownerID, id); err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, gin.H{"message": "Item deleted"})
}

// ListMovements returns the stock history of one item
// @Summary      List stock movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Item ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      404    {object}  response.Response
// @Router       /api/inventory/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p := pagination.Parse(c)

	movements, total, err := h.inventoryService.Movements(c.Request.Context(), ownerID, id, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, p.Body("movements", movements, total))
}
