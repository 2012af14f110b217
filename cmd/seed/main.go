package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/models"
	"github.com/formpilot/formpilot/internal/services"
)

func main() {
	db, err := gorm.Open(sqlite.Open("./data/formpilot.db"), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Rule{},
		&models.Collection{},
		&models.DefaultMapping{},
		&models.StoredImage{},
		&models.ImageQuota{},
		&models.FillRun{},
		&models.Setting{},
		&models.Notification{},
		&models.NotificationProvider{},
		&models.User{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Println("✓ Database migrated successfully")

	// Seed demo admin user
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		admin := models.User{
			Email:   "admin@example.com",
			Name:    "Admin",
			Role:    "admin",
			Enabled: true,
		}
		if err := admin.SetPassword("changeme"); err != nil {
			log.Fatal("Failed to hash password:", err)
		}
		admin.UUID = uuid.NewString()
		if err := db.Create(&admin).Error; err != nil {
			log.Fatal("Failed to seed admin user:", err)
		}
		fmt.Println("✓ Seeded admin user (admin@example.com / changeme)")
	}

	rules := services.NewRuleService(db)

	listingRule := &models.Rule{
		Name:    "Marketplace listing",
		Pattern: "https://marketplace.example.com/sell/*",
		Enabled: true,
		Fields: []models.FieldMapping{
			{MatchKind: models.MatchID, Selector: "title", ValueKind: models.ValueTitle, MinLength: 20, MaxLength: 60},
			{MatchKind: models.MatchID, Selector: "description", ValueKind: models.ValueDesc, MinLength: 120, MaxLength: 400},
			{MatchKind: models.MatchName, Selector: "price", ValueKind: models.ValueTemplate, Value: "{{random:1,99}}"},
			{MatchKind: models.MatchName, Selector: "sku", ValueKind: models.ValueTemplate, Value: "SKU-{{inc}}"},
			{MatchKind: models.MatchQuery, Selector: "select[name=condition]", ValueKind: models.ValueStatic, Value: "used"},
			{MatchKind: models.MatchName, Selector: "terms", ValueKind: models.ValueStatic, Value: "true"},
		},
		PostActions: []models.PostAction{
			{Kind: models.ActionWait, DelayMs: 250},
			{Kind: models.ActionClick, Selector: "#submit"},
		},
	}

	signupRule := &models.Rule{
		Name:    "Account signup",
		Pattern: "https://*.example.org/register",
		Enabled: true,
		Fields: []models.FieldMapping{
			{MatchKind: models.MatchID, Selector: "email", ValueKind: models.ValueTemplate, Value: "user-{{random:12}}@test.invalid"},
			{MatchKind: models.MatchID, Selector: "/pass(word)?/", ValueKind: models.ValueTemplate, Value: "{{random:16}}"},
			{MatchKind: models.MatchName, Selector: "birthdate", ValueKind: models.ValueTemplate, Value: "{{date:YYYY-MM-DD}}"},
		},
	}

	for _, rule := range []*models.Rule{listingRule, signupRule} {
		var count int64
		db.Model(&models.Rule{}).Where("name = ?", rule.Name).Count(&count)
		if count > 0 {
			continue
		}
		if err := rules.Create(rule); err != nil {
			log.Fatalf("Failed to seed rule %q: %v", rule.Name, err)
		}
		fmt.Printf("✓ Seeded rule %q\n", rule.Name)
	}

	if listingRule.UUID == "" {
		// Rule existed already; reuse its identity for the default mapping.
		var existing models.Rule
		if err := db.Where("name = ?", listingRule.Name).First(&existing).Error; err != nil {
			log.Fatal("Failed to load seeded rule:", err)
		}
		listingRule = &existing
	}

	defaults := services.NewDefaultMappingService(db)
	if _, err := defaults.Set(listingRule.Pattern, listingRule.UUID); err != nil {
		log.Fatal("Failed to seed default mapping:", err)
	}
	fmt.Println("✓ Seeded default mapping for marketplace listings")
}
