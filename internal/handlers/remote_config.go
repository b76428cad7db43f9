package handlers

import (
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type RemoteConfigHandler struct {
	configs *services.RemoteConfigService
}

func NewRemoteConfigHandler(configs *services.RemoteConfigService) *RemoteConfigHandler {
	return &RemoteConfigHandler{configs: configs}
}

// GetConfig returns every setting (public).
func (h *RemoteConfigHandler) GetConfig(c *fiber.Ctx) error {
	result, err := h.configs.All(c.UserContext())
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(result)
}

// SetConfigKey sets or updates a config key (admin only).
func (h *RemoteConfigHandler) SetConfigKey(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return badRequest(c, "Key parameter is required")
	}

	var payload struct {
		Value string `json:"value"`
		Type  string `json:"type"` // string, bool, int, json
	}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cfg, err := h.configs.Set(c.UserContext(), key, payload.Value, payload.Type)
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Config updated successfully",
		"config": fiber.Map{
			"key":   cfg.Key,
			"value": cfg.Value,
			"type":  cfg.Type,
		},
	})
}

// DeleteConfigKey deletes a config key (admin only).
func (h *RemoteConfigHandler) DeleteConfigKey(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return badRequest(c, "Key parameter is required")
	}

	if err := h.configs.Delete(c.UserContext(), key); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(dto.ErrorResponse{Error: false, Message: "Config deleted successfully"})
}
