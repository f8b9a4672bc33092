package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/zotexmedia/verification/models"
	"github.com/zotexmedia/verification/utils"
)

type APIKeyController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAPIKeyController(db *gorm.DB, logger *log.Logger) *APIKeyController {
	return &APIKeyController{DB: db, Logger: logger}
}

type createAPIKeyRequest struct {
	Name string `json:"name" validate:"required,min=3,max=64"`
}

// CreateAPIKey mints a new key. The token is returned exactly once; only
// its bcrypt hash is stored.
func (ac *APIKeyController) CreateAPIKey(c *fiber.Ctx) error {
	var request createAPIKeyRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}
	if err := utils.ValidateStruct(request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	token, prefix, hash, err := utils.GenerateAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate API key",
		})
	}

	apiKey := models.APIKey{
		Name:     request.Name,
		Prefix:   prefix,
		KeyHash:  hash,
		IsActive: true,
	}
	if err := ac.DB.Create(&apiKey).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store API key",
		})
	}

	ac.Logger.Printf("API key created: %s (%s)", apiKey.Name, apiKey.Prefix)

	return c.JSON(fiber.Map{
		"id":    apiKey.ID,
		"name":  apiKey.Name,
		"token": token,
	})
}

func (ac *APIKeyController) ListAPIKeys(c *fiber.Ctx) error {
	var keys []models.APIKey
	if err := ac.DB.Order("created_at DESC").Find(&keys).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load API keys",
		})
	}
	return c.JSON(keys)
}

func (ac *APIKeyController) RevokeAPIKey(c *fiber.Ctx) error {
	var apiKey models.APIKey
	if err := ac.DB.First(&apiKey, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API key not found",
		})
	}

	if err := ac.DB.Model(&apiKey).Update("is_active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to revoke API key",
		})
	}

	ac.Logger.Printf("API key revoked: %s (%s)", apiKey.Name, apiKey.Prefix)

	return c.JSON(fiber.Map{"message": "API key revoked"})
}
