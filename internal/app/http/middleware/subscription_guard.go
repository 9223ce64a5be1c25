package middleware

import (
	"context"
	"net/http"

	"agency-portal/internal/domain/profiles"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProfileLookup interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profiles.Profile, error)
}

const ctxProfile = "profile"

// RequireBillingLinked lets the request through only when the caller's
// profile already has a Stripe customer. The loaded profile is stored on the
// context for the handler.
func RequireBillingLinked(lookup ProfileLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CallerID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		profile, err := lookup.GetProfile(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
			return
		}
		if profile == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		if !profile.HasBilling() {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Billing is not set up for this account yet"})
			return
		}

		c.Set(ctxProfile, profile)
		c.Next()
	}
}

// LinkedProfile returns the profile loaded by RequireBillingLinked.
func LinkedProfile(c *gin.Context) *profiles.Profile {
	v, ok := c.Get(ctxProfile)
	if !ok {
		return nil
	}
	p, _ := v.(*profiles.Profile)
	return p
}
