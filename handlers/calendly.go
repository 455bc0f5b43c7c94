package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	consultantRepo "veridie/database/repository/consultant"
	"veridie/models"
	"veridie/services/calendly"
	"veridie/services/token"
	"veridie/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	oauthStateTTL     = 10 * time.Minute
	eventTypeCacheTTL = 5 * time.Minute
)

// CalendlyHandler exposes the Calendly connect flow and event-type endpoints.
type CalendlyHandler struct {
	Calendly    calendly.API
	Tokens      token.Service
	Consultants consultantRepo.ConsultantRepository
	Cache       *redis.Client
	WebhookURL  string
	Logger      *zap.Logger
}

func NewCalendlyHandler(api calendly.API, tokens token.Service, consultants consultantRepo.ConsultantRepository, cache *redis.Client, webhookURL string, logger *zap.Logger) *CalendlyHandler {
	return &CalendlyHandler{
		Calendly:    api,
		Tokens:      tokens,
		Consultants: consultants,
		Cache:       cache,
		WebhookURL:  webhookURL,
		Logger:      logger,
	}
}

func stateKey(state string) string {
	return "calendly:oauth_state:" + state
}

func eventTypeCacheKey(consultantID string) string {
	return "calendly:event_types:" + consultantID
}

// ConnectHandler returns the provider consent URL for a consultant. The state
// parameter is a one-time value mapped to the consultant in Redis.
func (h *CalendlyHandler) ConnectHandler(c *gin.Context) {
	consultantID := c.Query("consultantId")
	if consultantID == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing required parameters", "consultantId is required")
		return
	}

	state := uuid.New().String()
	ctx := c.Request.Context()
	if err := h.Cache.Set(ctx, stateKey(state), consultantID, oauthStateTTL).Err(); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to start connect flow", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"authorizationUrl": h.Calendly.AuthorizationURL(state)})
}

// CallbackHandler completes the OAuth flow: exchanges the code, resolves the
// Calendly account owner, persists the credential, and registers the webhook.
func (h *CalendlyHandler) CallbackHandler(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing required parameters", "code and state are required")
		return
	}

	ctx := c.Request.Context()
	consultantID, err := h.Cache.Get(ctx, stateKey(state)).Result()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid state", "connect flow expired or state unknown")
		return
	}
	h.Cache.Del(ctx, stateKey(state))

	grant, err := h.Calendly.ExchangeAuthorizationCode(ctx, code)
	switch {
	case errors.Is(err, calendly.ErrRateLimited):
		utils.JSONError(c, http.StatusTooManyRequests, "rate limited", "the scheduling provider is rate limiting; try again shortly")
		return
	case err != nil:
		h.Logger.Error("Calendly code exchange failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "code exchange failed", err.Error())
		return
	}

	owner, err := h.Calendly.Me(ctx, grant.AccessToken)
	if err != nil {
		h.Logger.Error("Failed to resolve calendly account owner", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "failed to resolve account", err.Error())
		return
	}

	cred := models.CalendlyCredential{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    &grant.ExpiresAt,
		UserURI:      owner.URI,
	}
	if err := h.Consultants.UpdateCredential(consultantID, cred); err != nil {
		h.Logger.Error("Failed to persist calendly credential",
			zap.String("consultantId", consultantID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to save credential", err.Error())
		return
	}

	// Webhook registration is best effort; a miss only disables cancel sync.
	webhookRegistered := false
	if h.WebhookURL != "" {
		if _, err := h.Calendly.CreateWebhookSubscription(ctx, grant.AccessToken, h.WebhookURL, owner.URI); err != nil {
			h.Logger.Warn("Failed to register calendly webhook",
				zap.String("consultantId", consultantID), zap.Error(err))
		} else {
			webhookRegistered = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":         true,
		"calendlyUser":      owner,
		"webhookRegistered": webhookRegistered,
	})
}

// ListEventTypesHandler lists the consultant's Calendly event types, cached
// briefly to keep the settings page off the provider's rate limits.
func (h *CalendlyHandler) ListEventTypesHandler(c *gin.Context) {
	consultantID := c.Query("consultantId")
	if consultantID == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing required parameters", "consultantId is required")
		return
	}
	ctx := c.Request.Context()

	if cached, err := h.Cache.Get(ctx, eventTypeCacheKey(consultantID)).Result(); err == nil {
		var eventTypes []models.EventType
		if json.Unmarshal([]byte(cached), &eventTypes) == nil {
			c.JSON(http.StatusOK, gin.H{"eventTypes": eventTypes, "cached": true})
			return
		}
	}

	consultant, err := h.Consultants.GetByID(consultantID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "consultant not found", err.Error())
		return
	}

	accessToken, err := h.Tokens.EnsureValidToken(ctx, consultantID)
	switch {
	case errors.Is(err, token.ErrNoRefreshToken):
		utils.JSONError(c, http.StatusBadRequest, "calendly not connected", "connect a Calendly account first")
		return
	case errors.Is(err, calendly.ErrRateLimited):
		utils.JSONError(c, http.StatusTooManyRequests, "rate limited", "try again shortly")
		return
	case errors.Is(err, calendly.ErrReauthorizationRequired):
		utils.JSONError(c, http.StatusUnauthorized, "reauthorization required", "reconnect the Calendly account")
		return
	case err != nil:
		utils.JSONError(c, http.StatusBadGateway, "token refresh failed", err.Error())
		return
	}

	eventTypes, err := h.Calendly.ListEventTypes(ctx, accessToken, consultant.Calendly.UserURI)
	switch {
	case errors.Is(err, calendly.ErrRateLimited):
		utils.JSONError(c, http.StatusTooManyRequests, "rate limited", "try again shortly")
		return
	case errors.Is(err, calendly.ErrReauthorizationRequired):
		utils.JSONError(c, http.StatusUnauthorized, "reauthorization required", "reconnect the Calendly account")
		return
	case err != nil:
		utils.JSONError(c, http.StatusBadGateway, "failed to list event types", err.Error())
		return
	}

	if encoded, err := json.Marshal(eventTypes); err == nil {
		// Cache failures are non-fatal.
		h.cacheSet(ctx, eventTypeCacheKey(consultantID), encoded)
	}

	c.JSON(http.StatusOK, gin.H{"eventTypes": eventTypes, "cached": false})
}

func (h *CalendlyHandler) cacheSet(ctx context.Context, key string, value []byte) {
	if err := h.Cache.Set(ctx, key, value, eventTypeCacheTTL).Err(); err != nil {
		h.Logger.Warn("Failed to cache event types", zap.Error(err))
	}
}

// UpdateEventTypeMappingHandler attaches an event type to a service, or to
// the consultant default when serviceId is omitted.
func (h *CalendlyHandler) UpdateEventTypeMappingHandler(c *gin.Context) {
	consultantID := c.Param("id")
	var input struct {
		ServiceID    string `json:"serviceId"`
		EventTypeURI string `json:"eventTypeUri"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.EventTypeURI == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing required parameters", "eventTypeUri is required")
		return
	}

	if err := h.Consultants.UpdateEventTypeMapping(consultantID, input.ServiceID, input.EventTypeURI); err != nil {
		utils.JSONError(c, http.StatusNotFound, "failed to update mapping", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// DisconnectHandler removes the stored Calendly credential.
func (h *CalendlyHandler) DisconnectHandler(c *gin.Context) {
	consultantID := c.Param("id")
	if err := h.Consultants.ClearCredential(consultantID); err != nil {
		utils.JSONError(c, http.StatusNotFound, "failed to disconnect", err.Error())
		return
	}
	h.Cache.Del(c.Request.Context(), eventTypeCacheKey(consultantID))
	c.JSON(http.StatusOK, gin.H{"disconnected": true})
}
