package api

import (
	"github.com/gin-gonic/gin"

	categoryUsecase "pendientes-backend/internal/category/usecase"
	debtUsecase "pendientes-backend/internal/debt/usecase"
	deviceUsecase "pendientes-backend/internal/device/usecase"
	noteUsecase "pendientes-backend/internal/note/usecase"
	"pendientes-backend/internal/notification"
	supermarketUsecase "pendientes-backend/internal/supermarket/usecase"
	"pendientes-backend/pkg/config"
)

type Handler struct {
	registry   deviceUsecase.Registry
	dispatcher notification.Deliverer
	messages   *notification.MessageService
	categories categoryUsecase.CategoryService
	notes      noteUsecase.NoteService
	items      supermarketUsecase.ItemService
	debts      debtUsecase.DebtService
	config     *config.Config
}

func NewHandler(
	registry deviceUsecase.Registry,
	dispatcher notification.Deliverer,
	messages *notification.MessageService,
	categories categoryUsecase.CategoryService,
	notes noteUsecase.NoteService,
	items supermarketUsecase.ItemService,
	debts debtUsecase.DebtService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		messages:   messages,
		categories: categories,
		notes:      notes,
		items:      items,
		debts:      debts,
		config:     cfg,
	}
}

func (h *Handler) Start(addr string) error {
	return h.buildEngine().Run(addr)
}

// buildEngine assembles the configured gin engine. The mode has to be set
// before gin.Default constructs the engine for it to take effect.
func (h *Handler) buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.registry, h.dispatcher, h.messages, h.categories, h.notes, h.items, h.debts)

	return r
}
