package storage

import (
	"log"
	"os"
	"time"

	"boxtrack/models"
	"boxtrack/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The production activity catalog. Stage 1 is structure, stage 2 MEP and
// finishes, stage 3 dispatch. Checkpoint rows carry the WIR code that gates
// them.
var activityCatalog = []models.ActivityTemplate{
	{ID: 1, Code: "ACT-01", Name: "Mould Preparation", Stage: 1, StageSequence: 1, Sequence: 1},
	{ID: 2, Code: "ACT-02", Name: "Reinforcement", Stage: 1, StageSequence: 2, Sequence: 2},
	{ID: 3, Code: "ACT-03", Name: "MEP Embedments", Stage: 1, StageSequence: 3, Sequence: 3},
	{ID: 4, Code: "ACT-04", Name: "Casting", Stage: 1, StageSequence: 4, Sequence: 4},
	{ID: 5, Code: "ACT-05", Name: "Demoulding", Stage: 1, StageSequence: 5, Sequence: 5},
	{ID: 6, Code: "ACT-06", Name: "Wall Panel Erection", Stage: 1, StageSequence: 6, Sequence: 6},
	{ID: 7, Code: "ACT-07", Name: "Roof Slab Fixing", Stage: 1, StageSequence: 7, Sequence: 7},
	{ID: 8, Code: "ACT-08", Name: "Box Closure", Stage: 1, StageSequence: 8, Sequence: 8, IsCheckpoint: true, CheckpointCode: "WIR-1"},
	{ID: 9, Code: "ACT-09", Name: "MEP First Fix", Stage: 2, StageSequence: 1, Sequence: 9, IsCheckpoint: true, CheckpointCode: "WIR-2"},
	{ID: 10, Code: "ACT-10", Name: "Waterproofing", Stage: 2, StageSequence: 2, Sequence: 10, IsCheckpoint: true, CheckpointCode: "WIR-3"},
	{ID: 11, Code: "ACT-11", Name: "Floor Screed", Stage: 2, StageSequence: 3, Sequence: 11},
	{ID: 12, Code: "ACT-12", Name: "Tiling", Stage: 2, StageSequence: 4, Sequence: 12},
	{ID: 13, Code: "ACT-13", Name: "Painting", Stage: 2, StageSequence: 5, Sequence: 13},
	{ID: 14, Code: "ACT-14", Name: "Internal Finishes", Stage: 2, StageSequence: 6, Sequence: 14, IsCheckpoint: true, CheckpointCode: "WIR-4"},
	{ID: 15, Code: "ACT-15", Name: "MEP Final Fix", Stage: 2, StageSequence: 7, Sequence: 15, IsCheckpoint: true, CheckpointCode: "WIR-5"},
	{ID: 16, Code: "ACT-16", Name: "Final Cleaning", Stage: 3, StageSequence: 1, Sequence: 16},
	{ID: 17, Code: "ACT-17", Name: "Pre-Dispatch Inspection", Stage: 3, StageSequence: 2, Sequence: 17, IsCheckpoint: true, CheckpointCode: "WIR-6"},
}

// SeedActivityTemplates inserts the activity catalog if the table is empty.
// The catalog is treated as read-only at runtime; changing it requires a
// migration, not an API.
func SeedActivityTemplates(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ActivityTemplate{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for i := range activityCatalog {
		activityCatalog[i].IsActive = true
	}
	return db.Create(&activityCatalog).Error
}

// SeedAdminUser bootstraps the initial admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when no users exist yet.
func SeedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  hashed,
		FirstName: "Site",
		LastName:  "Admin",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	return db.Create(&admin).Error
}
