package delivery

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pendientes-backend/internal/debt/usecase"
	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// DebtHandler serves the ledger endpoints
type DebtHandler struct {
	debts usecase.DebtService
}

func NewDebtHandler(debts usecase.DebtService) *DebtHandler {
	return &DebtHandler{debts: debts}
}

func (h *DebtHandler) List(c *gin.Context) {
	entries, err := h.debts.List(c.Request.Context(), c.Query("order"))
	if err != nil {
		respondError(c, err, "Error al obtener las deudas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": entries})
}

func (h *DebtHandler) Create(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "El cuerpo debe ser un objeto"})
		return
	}
	entry, err := h.debts.Create(c.Request.Context(), payload.Unwrap(body))
	if err != nil {
		respondError(c, err, "Error al registrar la deuda")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": entry})
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
	default:
		log.Printf("[DEBTS] %s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": fallback})
	}
}
