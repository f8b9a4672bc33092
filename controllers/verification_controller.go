package controller

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/likexian/whois"
	"gorm.io/gorm"

	"github.com/zotexmedia/verification/config"
	"github.com/zotexmedia/verification/models"
	"github.com/zotexmedia/verification/utils"
	"github.com/zotexmedia/verification/verifier"
)

type VerificationController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Lists  verifier.ListProvider
}

func NewVerificationController(db *gorm.DB, logger *log.Logger, lists verifier.ListProvider) *VerificationController {
	return &VerificationController{
		DB:     db,
		Logger: logger,
		Lists:  lists,
	}
}

// newVerifier builds a classifier for one run; the verdict cache lives and
// dies with it.
func (vc *VerificationController) newVerifier(policy verifier.Policy, concurrency int) *verifier.Verifier {
	return verifier.New(verifier.Config{
		Policy:         policy,
		MaxConcurrency: concurrency,
		HELODomain:     config.AppConfig.HELODomain,
		SMTPPort:       config.AppConfig.SMTPProbePort,
		SMTPTimeout:    config.AppConfig.SMTPTimeout,
		DNSTimeout:     config.AppConfig.DNSTimeout,
		BlocklistZone:  config.AppConfig.BlocklistZone,
	}, vc.Lists, nil)
}

func parsePolicy(raw string) (verifier.Policy, error) {
	switch raw {
	case "":
		return verifier.Policy(config.AppConfig.DefaultPolicy), nil
	case "strict":
		return verifier.PolicyStrict, nil
	case "lenient":
		return verifier.PolicyLenient, nil
	default:
		return "", fmt.Errorf("policy must be strict or lenient, got %q", raw)
	}
}

// VerifyEmail handles single email verification
func (vc *VerificationController) VerifyEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email address is required",
		})
	}

	policy, err := parsePolicy(c.Query("policy"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	v := vc.newVerifier(policy, 1)
	result := v.Classify(c.UserContext(), email)

	response := struct {
		verifier.Result
		WHOIS string `json:"whois,omitempty"`
	}{Result: result}

	// WHOIS enrichment is best effort and only for addresses that parsed.
	if config.AppConfig.WHOISEnabled && c.QueryBool("whois") && result.Reason != verifier.ReasonInvalidSyntax {
		if info, err := whois.Whois(domainOf(result.Email)); err == nil {
			response.WHOIS = info
		}
	}

	return c.JSON(response)
}

type bulkVerifyRequest struct {
	Name           string   `json:"name"`
	Emails         []string `json:"emails" validate:"required,min=1,max=10000"`
	Policy         string   `json:"policy" validate:"omitempty,oneof=strict lenient"`
	MaxConcurrency int      `json:"max_concurrency" validate:"omitempty,min=1,max=50"`
}

// BulkVerify accepts an ordered address list and classifies it in the
// background; progress is streamed over the job's websocket.
func (vc *VerificationController) BulkVerify(c *fiber.Ctx) error {
	apiKey := c.Locals("api_key").(*models.APIKey)

	var request bulkVerifyRequest
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

	policy, err := parsePolicy(request.Policy)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	workers := request.MaxConcurrency
	if workers == 0 {
		workers = config.AppConfig.VerifyWorkers
	}

	name := request.Name
	if name == "" {
		name = "Bulk verification " + time.Now().Format("2006-01-02")
	}

	job := models.VerificationJob{
		APIKeyID:       apiKey.ID,
		Name:           name,
		Status:         "processing",
		Policy:         string(policy),
		MaxConcurrency: workers,
		TotalCount:     len(request.Emails),
		StartedAt:      utils.Pointer(time.Now()),
	}
	if err := vc.DB.Create(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create verification job",
		})
	}

	go vc.processBulkVerification(job.ID, request.Emails, policy, workers)

	return c.JSON(fiber.Map{
		"message": "Verification started",
		"job_id":  job.ID,
	})
}

func (vc *VerificationController) processBulkVerification(jobID uint, emails []string, policy verifier.Policy, workers int) {
	v := vc.newVerifier(policy, workers)

	results := v.ClassifyBatch(context.Background(), emails, func(p verifier.BatchProgress) {
		jobProgress.publish(jobID, p)
	})
	defer jobProgress.finish(jobID)

	var okay, doNot, maybe int
	rows := make([]models.VerificationRow, 0, len(results))
	for i, result := range results {
		switch result.Verdict {
		case verifier.OkayToSend:
			okay++
		case verifier.MaybeSend:
			maybe++
		default:
			doNot++
		}

		rows = append(rows, models.VerificationRow{
			JobID:       jobID,
			Position:    i,
			Email:       result.Email,
			Verdict:     string(result.Verdict),
			Reason:      string(result.Reason),
			Detail:      result.Detail,
			RoleAccount: result.RoleAccount,
		})
	}

	completedAt := time.Now()
	err := vc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return err
		}
		return tx.Model(&models.VerificationJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
			"status":       "completed",
			"okay_count":   okay,
			"do_not_count": doNot,
			"maybe_count":  maybe,
			"completed_at": &completedAt,
		}).Error
	})
	if err != nil {
		utils.LogError("verification_job_failed", err, map[string]interface{}{
			"job_id": jobID,
		})
		vc.DB.Model(&models.VerificationJob{}).Where("id = ?", jobID).Update("status", "failed")
		return
	}

	utils.LogEvent("verification_job_completed", map[string]interface{}{
		"job_id": jobID,
		"total":  len(results),
		"okay":   okay,
		"do_not": doNot,
		"maybe":  maybe,
	})
}

// GetVerificationResults retrieves one job with its rows in input order.
func (vc *VerificationController) GetVerificationResults(c *fiber.Ctx) error {
	apiKey := c.Locals("api_key").(*models.APIKey)
	jobID := c.Params("id")

	var job models.VerificationJob
	err := vc.DB.Preload("Rows", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id = ? AND api_key_id = ?", jobID, apiKey.ID).First(&job).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Verification job not found",
		})
	}

	return c.JSON(job)
}

// ExportResults streams a completed job as CSV for download.
func (vc *VerificationController) ExportResults(c *fiber.Ctx) error {
	apiKey := c.Locals("api_key").(*models.APIKey)
	jobID := c.Params("id")

	var job models.VerificationJob
	if err := vc.DB.Where("id = ? AND api_key_id = ?", jobID, apiKey.ID).First(&job).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Verification job not found",
		})
	}

	var rows []models.VerificationRow
	if err := vc.DB.Where("job_id = ?", job.ID).Order("position ASC").Find(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load verification rows",
		})
	}

	data, err := utils.ResultsToCSV(rows)
	if err != nil {
		vc.Logger.Printf("CSV export failed for job %d: %v", job.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render CSV",
		})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="verified_emails_%d.csv"`, job.ID))
	return c.Send(data)
}

func domainOf(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 && at < len(email)-1 {
		return email[at+1:]
	}
	return ""
}
