package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zotexmedia/verification/config"
	"github.com/zotexmedia/verification/models"
	"github.com/zotexmedia/verification/utils"
)

// Protected authenticates requests by API key, presented either as an
// X-API-Key header or a Bearer token. The matching key record is stored
// in c.Locals("api_key").
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("X-API-Key")
		if token == "" {
			authHeader := c.Get("Authorization")
			if authHeader == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "API key required",
				})
			}
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		}

		prefix := utils.APIKeyPrefix(token)
		if prefix == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
			})
		}

		var apiKey models.APIKey
		if err := config.DB.Where("prefix = ?", prefix).First(&apiKey).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
			})
		}

		if !apiKey.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "API key has been revoked",
			})
		}

		if !utils.CheckAPIKey(token, apiKey.KeyHash) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
			})
		}

		now := time.Now()
		if err := config.DB.Model(&apiKey).Update("last_used", &now).Error; err != nil {
			utils.LogError("api_key_touch_failed", err, map[string]interface{}{
				"api_key_id": apiKey.ID,
			})
		}

		c.Locals("api_key", &apiKey)
		return c.Next()
	}
}

// AdminOnly gates key-management endpoints behind the configured admin
// token.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("X-Admin-Token") != config.AppConfig.AdminToken {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin token required",
			})
		}
		return c.Next()
	}
}
