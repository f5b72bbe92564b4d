package delivery

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pendientes-backend/internal/supermarket/domain"
	"pendientes-backend/internal/supermarket/usecase"
	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// ItemHandler serves the shopping-list endpoints
type ItemHandler struct {
	items usecase.ItemService
}

func NewItemHandler(items usecase.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

func (h *ItemHandler) List(c *gin.Context) {
	result, err := h.items.List(c.Request.Context(), domain.Filter{
		Checked:  c.Query("checked"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "Error al listar la lista de super")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   result.Items,
		"meta": gin.H{
			"total":    result.Total,
			"filtered": result.Filtered,
			"stats":    result.Stats,
		},
	})
}

func (h *ItemHandler) Create(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	item, err := h.items.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, err, "Error al crear el producto")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": item})
}

// Replace handles PUT: every field is rewritten.
func (h *ItemHandler) Replace(c *gin.Context) {
	h.update(c, false)
}

// Patch handles PATCH: only the provided fields change.
func (h *ItemHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *ItemHandler) update(c *gin.Context, partial bool) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	item, err := h.items.Update(c.Request.Context(), c.Param("id"), body, partial)
	if err != nil {
		respondError(c, err, "Error al actualizar el producto")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": item})
}

func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.items.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Error al eliminar el producto")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Producto eliminado"})
}

func bindObject(c *gin.Context) (map[string]interface{}, bool) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "El cuerpo debe ser un objeto"})
		return nil, false
	}
	return payload.Unwrap(body), true
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
	default:
		log.Printf("[SUPERMARKET] %s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": fallback})
	}
}
