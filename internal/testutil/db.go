package testutil

import (
	"path/filepath"
	"testing"

	"agency-portal/database"
	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/profiles"
	"agency-portal/internal/domain/projects"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func StrPtr(s string) *string { return &s }

// SeedClient inserts a client profile linked to a Stripe customer.
func SeedClient(t *testing.T, db *gorm.DB, email, customerID string) *profiles.Profile {
	t.Helper()
	p := &profiles.Profile{Email: email, FullName: "Test Client", Role: profiles.RoleClient}
	if customerID != "" {
		p.StripeCustomerID = StrPtr(customerID)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// SeedProject inserts a billed project with its site control row.
func SeedProject(t *testing.T, db *gorm.DB, client *profiles.Profile, vercelID string, sc access.SiteControl) *projects.Project {
	t.Helper()
	p := &projects.Project{
		ClientID:      client.ID,
		Name:          "Acme Site",
		MonthlyPrice:  4900,
		Currency:      "usd",
		StripePriceID: StrPtr("price_test"),
	}
	if vercelID != "" {
		p.VercelProjectID = StrPtr(vercelID)
	}
	require.NoError(t, db.Create(p).Error)

	sc.ProjectID = p.ID
	require.NoError(t, db.Create(&sc).Error)
	return p
}
