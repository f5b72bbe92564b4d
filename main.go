package main

import (
	"context"
	"log"
	"time"

	api "pendientes-backend/cmd/api"
	categoryRepo "pendientes-backend/internal/category/repository"
	categoryUsecase "pendientes-backend/internal/category/usecase"
	debtRepo "pendientes-backend/internal/debt/repository"
	debtUsecase "pendientes-backend/internal/debt/usecase"
	deviceRepo "pendientes-backend/internal/device/repository"
	deviceUsecase "pendientes-backend/internal/device/usecase"
	noteRepo "pendientes-backend/internal/note/repository"
	noteUsecase "pendientes-backend/internal/note/usecase"
	"pendientes-backend/internal/notification"
	supermarketRepo "pendientes-backend/internal/supermarket/repository"
	supermarketUsecase "pendientes-backend/internal/supermarket/usecase"
	"pendientes-backend/pkg/config"
	"pendientes-backend/pkg/database"
	"pendientes-backend/pkg/expo"
	"pendientes-backend/pkg/fcm"
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx := context.Background()

	// Initialize Firestore
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Firestore:", err)
	}
	defer db.Close()

	// Initialize repositories (dependency injection)
	tokenRepository := deviceRepo.NewTokenRepository(db, cfg.PushTokensCollection)
	messageRepository := notification.NewMessageRepository(db, cfg.ChatMessagesCollection)
	categoryRepository := categoryRepo.NewCategoryRepository(db, cfg.CategoriesCollection, cfg.TasksSubcollection, func() string {
		return categoryUsecase.NowISO(time.Now())
	})
	noteRepository := noteRepo.NewNoteRepository(db, cfg.NotesCollection)
	itemRepository := supermarketRepo.NewItemRepository(db, cfg.SupermarketCollection)
	debtRepository := debtRepo.NewDebtRepository(db, cfg.DebtsCandidates())

	// Initialize push providers
	expoClient := expo.NewClient(cfg.ExpoEndpoint, cfg.ExpoAccessToken)

	var fcmClient notification.FCMClient
	if cfg.FirebaseCredentials != "" {
		client, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (FCM delivery disabled): %v", err)
		} else {
			fcmClient = client
		}
	} else {
		log.Printf("[WARN] No Firebase credentials configured, FCM delivery disabled")
	}

	// Initialize use cases (dependency injection)
	registry := deviceUsecase.NewRegistry(tokenRepository)
	dispatcher := notification.NewDispatcher(registry, expoClient, fcmClient, cfg.ExpoMaxBatch, cfg.FCMMaxBatch)
	notifier := notification.NewNotifier(dispatcher, cfg.NotificationSound)
	messages := notification.NewMessageService(messageRepository, registry, dispatcher, cfg.NotificationSound, cfg.ChatDefaultLimit, cfg.ChatMaxLimit)
	categories := categoryUsecase.NewCategoryService(categoryRepository, notifier, cfg.TaskStatuses)
	notes := noteUsecase.NewNoteService(noteRepository, notifier)
	items := supermarketUsecase.NewItemService(itemRepository, notifier)
	debts := debtUsecase.NewDebtService(debtRepository, notifier)

	// Initialize HTTP handler
	handler := api.NewHandler(registry, dispatcher, messages, categories, notes, items, debts, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := handler.Start(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
