package delivery

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pendientes-backend/internal/note/usecase"
	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// NoteHandler serves the note endpoints
type NoteHandler struct {
	notes usecase.NoteService
}

func NewNoteHandler(notes usecase.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.notes.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "No se pudieron obtener las notas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": notes})
}

func (h *NoteHandler) Create(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	note, err := h.notes.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, err, "No se pudo guardar la nota")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": note})
}

func (h *NoteHandler) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "ID de nota invalido"})
		return
	}
	body, ok := bindObject(c)
	if !ok {
		return
	}
	note, err := h.notes.Update(c.Request.Context(), id, body)
	if err != nil {
		respondError(c, err, "No se pudo actualizar la nota")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": note})
}

func (h *NoteHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "ID de nota invalido"})
		return
	}
	if err := h.notes.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "No se pudo eliminar la nota")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"id": id}})
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
		log.Printf("[NOTES] %s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": fallback})
	}
}
