package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pendientes-backend/internal/note/domain"
	"pendientes-backend/pkg/apperr"
)

type fakeNoteService struct {
	notes      []domain.Note
	created    map[string]interface{}
	createdErr error
	updateErr  error
	deleted    string
}

func (f *fakeNoteService) List(ctx context.Context) ([]domain.Note, error) {
	return f.notes, nil
}

func (f *fakeNoteService) Create(ctx context.Context, body map[string]interface{}) (*domain.Note, error) {
	if f.createdErr != nil {
		return nil, f.createdErr
	}
	f.created = body
	return &domain.Note{ID: "n1", Title: "Lista"}, nil
}

func (f *fakeNoteService) Update(ctx context.Context, id string, body map[string]interface{}) (*domain.Note, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &domain.Note{ID: id}, nil
}

func (f *fakeNoteService) Delete(ctx context.Context, id string) error {
	f.deleted = id
	return nil
}

func newNoteRouter(service *fakeNoteService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewNoteHandler(service)
	r.GET("/notes", handler.List)
	r.POST("/notes", handler.Create)
	r.PUT("/notes/:id", handler.Update)
	r.DELETE("/notes/:id", handler.Delete)
	return r
}

func TestCreateUnwrapsDataEnvelope(t *testing.T) {
	service := &fakeNoteService{}
	r := newNoteRouter(service)

	body := `{"data":{"title":"Lista","content":"pan"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Lista", service.created["title"])
	assert.JSONEq(t, `{"status":"success","data":{"id":"n1","title":"Lista","content":"","type":"","isManzana":false,"createdAt":null,"updatedAt":null}}`, w.Body.String())
}

func TestCreateRejectsNonObjectBody(t *testing.T) {
	r := newNoteRouter(&fakeNoteService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`[1,2]`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"El cuerpo debe ser un objeto"}`, w.Body.String())
}

func TestCreateMapsValidationTo400(t *testing.T) {
	service := &fakeNoteService{createdErr: apperr.Validation("Campos invalidos: title")}
	r := newNoteRouter(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`{"content":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Campos invalidos: title"}`, w.Body.String())
}

func TestUpdateMapsNotFoundTo404(t *testing.T) {
	service := &fakeNoteService{updateErr: apperr.NotFound("Nota no encontrada")}
	r := newNoteRouter(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/notes/abc", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Nota no encontrada"}`, w.Body.String())
}

func TestDeleteEchoesID(t *testing.T) {
	service := &fakeNoteService{}
	r := newNoteRouter(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/notes/abc", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", service.deleted)
	assert.JSONEq(t, `{"status":"success","data":{"id":"abc"}}`, w.Body.String())
}
