package repository

import (
	"context"
	"fmt"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/profiles"
	"agency-portal/internal/domain/projects"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DirectoryRepository reads and maintains profiles and projects.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) ProfileByStripeCustomer(ctx context.Context, customerID string) (*profiles.Profile, error) {
	if customerID == "" {
		return nil, nil
	}
	return firstOrNil[profiles.Profile](r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID))
}

func (r *DirectoryRepository) GetProfile(ctx context.Context, id uuid.UUID) (*profiles.Profile, error) {
	return firstOrNil[profiles.Profile](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *DirectoryRepository) ListClients(ctx context.Context) ([]profiles.Profile, error) {
	var out []profiles.Profile
	err := r.db.WithContext(ctx).Where("role = ?", profiles.RoleClient).Order("created_at DESC").Find(&out).Error
	return out, err
}

// AttachStripeCustomer links a profile to its Stripe customer. An existing
// link is never replaced.
func (r *DirectoryRepository) AttachStripeCustomer(ctx context.Context, profileID uuid.UUID, customerID string) error {
	res := r.db.WithContext(ctx).
		Model(&profiles.Profile{}).
		Where("id = ? AND stripe_customer_id IS NULL", profileID).
		Update("stripe_customer_id", customerID)
	if res.Error != nil {
		return fmt.Errorf("attach stripe customer to %s: %w", profileID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DirectoryRepository) GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	return firstOrNil[projects.Project](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *DirectoryRepository) ListProjectsByClient(ctx context.Context, clientID uuid.UUID) ([]projects.Project, error) {
	var out []projects.Project
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at ASC").Find(&out).Error
	return out, err
}

// CreateProject inserts the project, its site control row and, for billed
// projects, the first price version in one transaction.
func (r *DirectoryRepository) CreateProject(ctx context.Context, p *projects.Project, autoPause bool, price *projects.PriceVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		if err := tx.Create(access.NewSiteControl(p.ID, autoPause)).Error; err != nil {
			return fmt.Errorf("create site control: %w", err)
		}
		if price != nil {
			price.ProjectID = p.ID
			if err := tx.Create(price).Error; err != nil {
				return fmt.Errorf("record price version: %w", err)
			}
		}
		return nil
	})
}

// RecordPriceVersion appends a price version and points the project at it.
func (r *DirectoryRepository) RecordPriceVersion(ctx context.Context, projectID uuid.UUID, productID string, price *projects.PriceVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		price.ProjectID = projectID
		if err := tx.Create(price).Error; err != nil {
			return fmt.Errorf("record price version: %w", err)
		}
		res := tx.Model(&projects.Project{}).Where("id = ?", projectID).Updates(map[string]interface{}{
			"monthly_price":     price.Amount,
			"currency":          price.Currency,
			"stripe_product_id": productID,
			"stripe_price_id":   price.StripePriceID,
		})
		if res.Error != nil {
			return fmt.Errorf("point project at new price: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *DirectoryRepository) ListPriceVersions(ctx context.Context, projectID uuid.UUID) ([]projects.PriceVersion, error) {
	var out []projects.PriceVersion
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *DirectoryRepository) LinkVercelProject(ctx context.Context, projectID uuid.UUID, vercelProjectID string) error {
	var value interface{} = vercelProjectID
	if vercelProjectID == "" {
		value = nil
	}
	res := r.db.WithContext(ctx).Model(&projects.Project{}).Where("id = ?", projectID).Update("vercel_project_id", value)
	if res.Error != nil {
		return fmt.Errorf("link vercel project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
