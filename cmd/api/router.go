package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	categoryDelivery "pendientes-backend/internal/category/delivery"
	categoryUsecase "pendientes-backend/internal/category/usecase"
	debtDelivery "pendientes-backend/internal/debt/delivery"
	debtUsecase "pendientes-backend/internal/debt/usecase"
	deviceUsecase "pendientes-backend/internal/device/usecase"
	noteDelivery "pendientes-backend/internal/note/delivery"
	noteUsecase "pendientes-backend/internal/note/usecase"
	"pendientes-backend/internal/notification"
	notificationDelivery "pendientes-backend/internal/notification/delivery"
	supermarketDelivery "pendientes-backend/internal/supermarket/delivery"
	supermarketUsecase "pendientes-backend/internal/supermarket/usecase"
)

func SetupRoutes(
	r *gin.Engine,
	registry deviceUsecase.Registry,
	dispatcher notification.Deliverer,
	messages *notification.MessageService,
	categories categoryUsecase.CategoryService,
	notes noteUsecase.NoteService,
	items supermarketUsecase.ItemService,
	debts debtUsecase.DebtService,
) {
	notificationHandler := notificationDelivery.NewNotificationHandler(registry, dispatcher, messages)
	categoryHandler := categoryDelivery.NewCategoryHandler(categories)
	noteHandler := noteDelivery.NewNoteHandler(notes)
	itemHandler := supermarketDelivery.NewItemHandler(items)
	debtHandler := debtDelivery.NewDebtHandler(debts)

	api := r.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Push notification routes: device registry, chat, broadcast
		notifications := api.Group("/notifications")
		{
			notifications.POST("/register", notificationHandler.Register)
			notifications.GET("/devices", notificationHandler.ListDevices)
			notifications.PATCH("/devices/:id", notificationHandler.UpdateDevice)
			notifications.GET("/messages", notificationHandler.ListMessages)
			notifications.POST("/messages", notificationHandler.CreateMessage)
			notifications.POST("/broadcast", notificationHandler.Broadcast)
		}

		// Category and task routes
		categoriesGroup := api.Group("/categories")
		{
			categoriesGroup.GET("", categoryHandler.List)
			categoriesGroup.POST("", categoryHandler.Create)
			categoriesGroup.POST("/reorder", categoryHandler.Reorder)
			categoriesGroup.GET("/:id", categoryHandler.Get)
			categoriesGroup.PUT("/:id", categoryHandler.Update)
			categoriesGroup.DELETE("/:id", categoryHandler.Delete)
			categoriesGroup.GET("/:id/tasks", categoryHandler.ListTasks)
			categoriesGroup.POST("/:id/tasks", categoryHandler.CreateTask)
			categoriesGroup.POST("/:id/tasks/reorder", categoryHandler.ReorderTasks)
			categoriesGroup.PATCH("/:id/tasks/:taskId", categoryHandler.UpdateTask)
			categoriesGroup.DELETE("/:id/tasks/:taskId", categoryHandler.DeleteTask)
		}

		// Note routes
		notesGroup := api.Group("/notes")
		{
			notesGroup.GET("", noteHandler.List)
			notesGroup.POST("", noteHandler.Create)
			notesGroup.PUT("/:id", noteHandler.Update)
			notesGroup.DELETE("/:id", noteHandler.Delete)
		}

		// Shopping list routes
		supermarket := api.Group("/supermarket")
		{
			supermarket.GET("", itemHandler.List)
			supermarket.POST("", itemHandler.Create)
			supermarket.PUT("/:id", itemHandler.Replace)
			supermarket.PATCH("/:id", itemHandler.Patch)
			supermarket.DELETE("/:id", itemHandler.Delete)
		}

		// Debt ledger routes
		debtsGroup := api.Group("/debts")
		{
			debtsGroup.GET("", debtHandler.List)
			debtsGroup.POST("", debtHandler.Create)
		}
	}
}
