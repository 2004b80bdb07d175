package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"carrierwave-activities/models"
	"carrierwave-activities/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgramService struct {
	DB *gorm.DB
}

func NewProgramService(db *gorm.DB) *ProgramService {
	return &ProgramService{DB: db}
}

// ListPrograms handles GET /v1/programs: active programs in sort order plus
// the catalog version (newest updated_at as epoch seconds).
func (s *ProgramService) ListPrograms(c *fiber.Ctx) error {
	var programs []models.Program
	if err := s.DB.Where("is_active = ?", true).Order("sort_order").Find(&programs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list programs",
			"cause": err.Error(),
		})
	}

	var version int64
	s.DB.Model(&models.Program{}).
		Where("is_active = ?", true).
		Select("COALESCE(EXTRACT(EPOCH FROM MAX(updated_at))::bigint, 0)").
		Scan(&version)

	return c.JSON(models.ProgramListResponse{Programs: programs, Version: version})
}

// GetProgram handles GET /v1/programs/:slug.
func (s *ProgramService) GetProgram(c *fiber.Ctx) error {
	program, err := s.findActive(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "program_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error fetching program",
			"cause": err.Error(),
		})
	}
	return c.JSON(program)
}

// UpsertProgram handles PUT /v1/admin/programs. Creates or replaces a
// catalog entry. The slug is derived from the name when omitted.
func (s *ProgramService) UpsertProgram(c *fiber.Ctx) error {
	var program models.Program
	if err := c.BodyParser(&program); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}
	if program.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if program.Slug == "" {
		program.Slug = slug.Make(program.ShortName)
		if program.Slug == "" {
			program.Slug = slug.Make(program.Name)
		}
	}
	if program.Capabilities == nil {
		program.Capabilities = []string{}
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "short_name", "icon", "icon_url", "website",
			"reference_label", "reference_format", "reference_example",
			"multi_ref_allowed", "activation_threshold", "supports_rove",
			"capabilities", "sort_order", "is_active", "updated_at",
		}),
	}).Create(&program).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to upsert program",
			"cause": err.Error(),
		})
	}

	log.Printf("[PROGRAMS] upserted %s", program.Slug)
	return c.JSON(program)
}

// UploadProgramIcon handles POST /v1/admin/programs/:slug/icon. Stores the
// icon in R2 and records the public URL on the program.
func (s *ProgramService) UploadProgramIcon(c *fiber.Ctx) error {
	programSlug := c.Params("slug")

	var program models.Program
	if err := s.DB.First(&program, "slug = ?", programSlug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "program_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error fetching program",
			"cause": err.Error(),
		})
	}

	icon, err := c.FormFile("icon")
	if err != nil || icon.Size == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "icon file is required"})
	}

	ext := filepath.Ext(icon.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("program-icons/%s%s", programSlug, ext)

	url, err := utils.UploadFileToR2(icon, key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to upload icon",
			"cause": err.Error(),
		})
	}

	if err := s.DB.Model(&program).Update("icon_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save icon URL",
			"cause": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"slug": programSlug, "iconUrl": url})
}

func (s *ProgramService) findActive(programSlug string) (*models.Program, error) {
	var program models.Program
	err := s.DB.Where("slug = ? AND is_active = ?", programSlug, true).First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}
