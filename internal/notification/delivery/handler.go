package delivery

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pendientes-backend/internal/device/domain"
	"pendientes-backend/internal/device/usecase"
	"pendientes-backend/internal/notification"
	"pendientes-backend/pkg/apperr"
)

// NotificationHandler serves the device-registry and broadcast endpoints
type NotificationHandler struct {
	registry   usecase.Registry
	dispatcher notification.Deliverer
	messages   *notification.MessageService
}

func NewNotificationHandler(registry usecase.Registry, dispatcher notification.Deliverer, messages *notification.MessageService) *NotificationHandler {
	return &NotificationHandler{
		registry:   registry,
		dispatcher: dispatcher,
		messages:   messages,
	}
}

// RegisterRequest is the body of POST /notifications/register
type RegisterRequest struct {
	Token        string  `json:"token"`
	DeviceID     string  `json:"deviceId"`
	UserID       string  `json:"userId"`
	Platform     string  `json:"platform"`
	AppVersion   string  `json:"appVersion"`
	PushProvider string  `json:"pushProvider"`
	DisplayName  *string `json:"displayName"`
}

// Register upserts a device token. 201 for a new record, 200 for a refresh.
func (h *NotificationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": err.Error()})
		return
	}

	result, err := h.registry.Upsert(c.Request.Context(), usecase.RegisterInput{
		Token:       req.Token,
		DeviceID:    req.DeviceID,
		UserID:      req.UserID,
		Platform:    req.Platform,
		AppVersion:  req.AppVersion,
		Provider:    req.PushProvider,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		log.Printf("[NOTIFICATIONS] register error: %v", err)
		respondError(c, err, "No se pudo registrar el token")
		return
	}

	status := http.StatusOK
	if result.IsNew {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"ok":          true,
		"token":       result.Token,
		"tokenType":   result.TokenType,
		"isNew":       result.IsNew,
		"displayName": strOrNil(result.DisplayName),
	})
}

// ListDevices returns the active per-device registry view, newest first.
func (h *NotificationHandler) ListDevices(c *gin.Context) {
	devices, err := h.registry.ListDevices(c.Request.Context())
	if err != nil {
		log.Printf("[NOTIFICATIONS] list devices error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "No se pudo obtener la lista de dispositivos"})
		return
	}

	views := make([]gin.H, 0, len(devices))
	for _, device := range devices {
		views = append(views, deviceView(device))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": views})
}

// UpdateDevice patches the display name of one registry record.
func (h *NotificationHandler) UpdateDevice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "Identificador de dispositivo invalido"})
		return
	}

	var req struct {
		DisplayName *string `json:"displayName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": err.Error()})
		return
	}

	device, err := h.registry.RenameDevice(c.Request.Context(), id, req.DisplayName)
	if err != nil {
		log.Printf("[NOTIFICATIONS] update device error: %v", err)
		respondError(c, err, "No se pudo actualizar el dispositivo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": deviceView(*device)})
}

// ListMessages returns the recent chat history in chronological order.
func (h *NotificationHandler) ListMessages(c *gin.Context) {
	// A parsed limit of 0 clamps to 1; only an absent or unparsable value
	// falls back to the default.
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
			if limit < 1 {
				limit = 1
			}
		}
	}
	messages, err := h.messages.List(c.Request.Context(), limit)
	if err != nil {
		log.Printf("[NOTIFICATIONS] get messages error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "No se pudo obtener el historial de mensajes"})
		return
	}
	if messages == nil {
		messages = []notification.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": messages})
}

// CreateMessageRequest is the body of POST /notifications/messages
type CreateMessageRequest struct {
	Message         string                 `json:"message"`
	Title           string                 `json:"title"`
	SenderToken     string                 `json:"senderToken"`
	RecipientTokens []string               `json:"recipientTokens"`
	Data            map[string]interface{} `json:"data"`
	Sound           string                 `json:"sound"`
}

func (h *NotificationHandler) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": err.Error()})
		return
	}

	stored, delivery, err := h.messages.Create(c.Request.Context(), notification.MessageInput{
		Message:         req.Message,
		Title:           req.Title,
		SenderToken:     req.SenderToken,
		RecipientTokens: req.RecipientTokens,
		Data:            req.Data,
		Sound:           req.Sound,
	})
	if err != nil {
		log.Printf("[NOTIFICATIONS] create message error: %v", err)
		respondError(c, err, "No se pudo enviar el mensaje")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok": true,
		"data": gin.H{
			"id":                stored.ID,
			"title":             stored.Title,
			"message":           stored.Message,
			"senderToken":       stored.SenderToken,
			"senderDeviceId":    strOrNil(stored.SenderDeviceID),
			"senderDisplayName": strOrNil(stored.SenderDisplayName),
			"senderPlatform":    strOrNil(stored.SenderPlatform),
			"appVersion":        strOrNil(stored.AppVersion),
			"recipientTokens":   stored.RecipientTokens,
			"data":              stored.Data,
			"deliveredCount":    stored.DeliveredCount,
			"invalidCount":      stored.InvalidCount,
			"createdAt":         timeOrNil(stored.CreatedAt),
			"updatedAt":         timeOrNil(stored.UpdatedAt),
			"deliveredAt":       timeOrNil(stored.DeliveredAt),
			"delivery":          delivery,
		},
	})
}

// BroadcastRequest is the body of POST /notifications/broadcast
type BroadcastRequest struct {
	Title         string                 `json:"title"`
	Body          string                 `json:"body"`
	Data          map[string]interface{} `json:"data"`
	Sound         string                 `json:"sound"`
	Tokens        []string               `json:"tokens"`
	ExcludeTokens []string               `json:"excludeTokens"`
	SenderToken   string                 `json:"senderToken"`
}

func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": err.Error()})
		return
	}

	result, err := h.dispatcher.Deliver(c.Request.Context(), notification.Payload{
		Title:          req.Title,
		Body:           req.Body,
		Data:           req.Data,
		Sound:          req.Sound,
		ExplicitTokens: req.Tokens,
		ExcludeTokens:  req.ExcludeTokens,
		SenderToken:    req.SenderToken,
	})
	if err != nil {
		log.Printf("[NOTIFICATIONS] broadcast error: %v", err)
		respondError(c, err, "No se pudo enviar la notificacion")
		return
	}
	c.JSON(http.StatusOK, result)
}

func deviceView(device domain.PushToken) gin.H {
	return gin.H{
		"id":            device.ID,
		"token":         device.Token,
		"tokenType":     strOrNil(device.TokenType),
		"platform":      strOrNil(device.Platform),
		"deviceId":      strOrNil(device.DeviceID),
		"userId":        strOrNil(device.UserID),
		"appVersion":    strOrNil(device.AppVersion),
		"displayName":   strOrNil(device.DisplayName),
		"duplicateOf":   strOrNil(device.DuplicateOf),
		"active":        device.Active,
		"createdAt":     timeOrNil(device.CreatedAt),
		"updatedAt":     timeOrNil(device.UpdatedAt),
		"lastUsedAt":    timeOrNil(device.LastUsedAt),
		"deactivatedAt": timeOrNil(device.DeactivatedAt),
	}
}

func respondError(c *gin.Context, err error, fallback string) {
	message := fallback
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": message})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": message})
	}
}

func strOrNil(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func timeOrNil(value time.Time) interface{} {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
