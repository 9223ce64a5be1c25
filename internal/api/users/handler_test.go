package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/activity"
	"agency-portal/internal/repository"
	"agency-portal/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveAs(h gin.HandlerFunc, caller uuid.UUID) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		if caller != uuid.Nil {
			c.Set("profile_id", caller)
		}
		c.Next()
	}, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestGetCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	h := NewHandler(repository.NewDirectoryRepository(db), repository.NewJournalRepository(db))
	client := testutil.SeedClient(t, db, "a@example.com", "cus_1")
	testutil.SeedProject(t, db, client, "", access.SiteControl{IsLive: true})

	w := serveAs(h.GetCurrentUser, client.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp meResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a@example.com", resp.Profile.Email)
	assert.True(t, resp.HasBilling)
	assert.Len(t, resp.Projects, 1)

	assert.Equal(t, http.StatusNotFound, serveAs(h.GetCurrentUser, uuid.New()).Code)
	assert.Equal(t, http.StatusUnauthorized, serveAs(h.GetCurrentUser, uuid.Nil).Code)
}

func TestListMyActivity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	journal := repository.NewJournalRepository(db)
	h := NewHandler(repository.NewDirectoryRepository(db), journal)
	mine := testutil.SeedClient(t, db, "a@example.com", "cus_1")
	theirs := testutil.SeedClient(t, db, "b@example.com", "cus_2")

	require.NoError(t, journal.AppendActivity(context.Background(), &activity.Entry{
		ClientID: &mine.ID, Action: activity.InvoicePaid, Description: "Invoice #1 paid ($10.00)",
	}))
	require.NoError(t, journal.AppendActivity(context.Background(), &activity.Entry{
		ClientID: &theirs.ID, Action: activity.InvoicePaid, Description: "Invoice #2 paid ($20.00)",
	}))

	w := serveAs(h.ListMyActivity, mine.ID)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []activity.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Invoice #1 paid ($10.00)", entries[0].Description)
}
