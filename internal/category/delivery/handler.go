package delivery

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pendientes-backend/internal/category/usecase"
	"pendientes-backend/pkg/apperr"
	"pendientes-backend/pkg/payload"
)

// CategoryHandler serves the category and task endpoints
type CategoryHandler struct {
	categories usecase.CategoryService
}

func NewCategoryHandler(categories usecase.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) List(c *gin.Context) {
	includeTasks := c.Query("includeTasks") == "true"
	includeTaskCounts := includeTasks || c.Query("includeTaskCounts") == "true"

	categories, err := h.categories.List(c.Request.Context(), includeTasks, includeTaskCounts)
	if err != nil {
		respondError(c, err, "Error al listar categorias")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": categories})
}

func (h *CategoryHandler) Create(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	category, err := h.categories.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, err, "Error al crear la categoria")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": category})
}

func (h *CategoryHandler) Reorder(c *gin.Context) {
	var raw interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Se requiere un arreglo de categorias para reordenar"})
		return
	}
	count, err := h.categories.Reorder(c.Request.Context(), payload.UnwrapAny(raw))
	if err != nil {
		respondError(c, err, "Error al reordenar categorias")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Orden de categorias actualizado", "count": count})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	includeTasks := c.Query("includeTasks") != "false"
	category, err := h.categories.GetByID(c.Request.Context(), c.Param("id"), includeTasks)
	if err != nil {
		respondError(c, err, "Error al obtener la categoria")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": category})
}

func (h *CategoryHandler) Update(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	if err := h.categories.Update(c.Request.Context(), c.Param("id"), body); err != nil {
		respondError(c, err, "Error al actualizar la categoria")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Categoria actualizada"})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Error al eliminar la categoria")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Categoria eliminada"})
}

func (h *CategoryHandler) ListTasks(c *gin.Context) {
	tasks, err := h.categories.ListTasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Error al listar tareas")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"data":          tasks,
		"count":         len(tasks),
		"statusCatalog": h.categories.StatusCatalog(),
	})
}

func (h *CategoryHandler) CreateTask(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	task, err := h.categories.CreateTask(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		respondError(c, err, "Error al crear la tarea")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": task})
}

func (h *CategoryHandler) ReorderTasks(c *gin.Context) {
	var raw interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Se requiere un arreglo de tareas para reordenar"})
		return
	}
	count, err := h.categories.ReorderTasks(c.Request.Context(), c.Param("id"), payload.UnwrapAny(raw))
	if err != nil {
		respondError(c, err, "Error al reordenar tareas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Orden actualizado", "count": count})
}

func (h *CategoryHandler) UpdateTask(c *gin.Context) {
	body, ok := bindObject(c)
	if !ok {
		return
	}
	task, err := h.categories.UpdateTask(c.Request.Context(), c.Param("id"), c.Param("taskId"), body)
	if err != nil {
		respondError(c, err, "Error al actualizar la tarea")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Tarea actualizada", "data": task})
}

func (h *CategoryHandler) DeleteTask(c *gin.Context) {
	if err := h.categories.DeleteTask(c.Request.Context(), c.Param("id"), c.Param("taskId")); err != nil {
		respondError(c, err, "Error al eliminar la tarea")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Tarea eliminada"})
}

// bindObject decodes the request body into a map and unwraps the optional
// data envelope. A non-object body answers 400 directly.
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
		log.Printf("[CATEGORIES] %s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": fallback})
	}
}
