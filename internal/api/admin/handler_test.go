package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/activity"
	"agency-portal/internal/infra/vercel"
	"agency-portal/internal/reconcile"
	"agency-portal/internal/repository"
	"agency-portal/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

type fakeVercel struct {
	mu       sync.Mutex
	Fail     error
	Paused   []string
	Unpaused []string
	Projects []vercel.Project
}

func (f *fakeVercel) Pause(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Paused = append(f.Paused, id)
	return f.Fail
}

func (f *fakeVercel) Unpause(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Unpaused = append(f.Unpaused, id)
	return f.Fail
}

func (f *fakeVercel) ListProjects(context.Context) ([]vercel.Project, error) {
	return f.Projects, f.Fail
}

type noFetcher struct{}

func (noFetcher) GetSubscription(context.Context, string) (*stripe.Subscription, error) {
	return nil, errors.New("not used")
}

type fixture struct {
	db     *gorm.DB
	vercel *fakeVercel
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	directory := repository.NewDirectoryRepository(db)
	siteControls := repository.NewSiteControlRepository(db)
	journal := repository.NewJournalRepository(db)
	vc := &fakeVercel{}
	engine := reconcile.NewEngine(reconcile.Deps{
		Ledger:       repository.NewLedgerRepository(db),
		Directory:    directory,
		SiteControls: siteControls,
		Journal:      journal,
		Controller:   vc,
		Fetcher:      noFetcher{},
		Logger:       zerolog.Nop(),
	})
	h := NewHandler(engine, vc, directory, siteControls, journal, zerolog.Nop())

	r := gin.New()
	r.GET("/admin/clients", h.ListClients)
	r.GET("/admin/alerts", h.ListAlerts)
	r.POST("/admin/alerts/:id/dismiss", h.DismissAlert)
	r.GET("/admin/projects/:id/site-control", h.GetSiteControl)
	r.PUT("/admin/projects/:id/site-control", h.UpdateSiteControl)
	r.GET("/admin/projects/:id/activity", h.ListProjectActivity)
	r.GET("/admin/vercel/projects", h.ListVercelProjects)

	return &fixture{db: db, vercel: vc, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) siteControl(t *testing.T, projectID uuid.UUID) access.SiteControl {
	t.Helper()
	var sc access.SiteControl
	require.NoError(t, f.db.First(&sc, "project_id = ?", projectID).Error)
	return sc
}

func TestManualPauseAndResume(t *testing.T) {
	f := newFixture(t)
	client := testutil.SeedClient(t, f.db, "a@example.com", "cus_1")
	project := testutil.SeedProject(t, f.db, client, "prj_vercel", access.SiteControl{IsLive: true, AutoPauseEnabled: true})
	path := "/admin/projects/" + project.ID.String() + "/site-control"

	w := f.do(t, http.MethodPut, path, map[string]any{"is_live": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"paused_manual"`)
	assert.Equal(t, []string{"prj_vercel"}, f.vercel.Paused)
	assert.Equal(t, access.PausedManual, f.siteControl(t, project.ID).State())

	w = f.do(t, http.MethodPut, path, map[string]any{"is_live": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"prj_vercel"}, f.vercel.Unpaused)
	assert.True(t, f.siteControl(t, project.ID).IsLive)

	w = f.do(t, http.MethodGet, "/admin/projects/"+project.ID.String()+"/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []activity.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	actions := []string{entries[0].Action, entries[1].Action}
	assert.ElementsMatch(t, []string{activity.SitePaused, activity.SiteResumed}, actions)
}

func TestManualToggleControllerFailure(t *testing.T) {
	f := newFixture(t)
	f.vercel.Fail = errors.New("vercel 500")
	client := testutil.SeedClient(t, f.db, "a@example.com", "cus_1")
	project := testutil.SeedProject(t, f.db, client, "prj_vercel", access.SiteControl{IsLive: true, AutoPauseEnabled: true})

	w := f.do(t, http.MethodPut, "/admin/projects/"+project.ID.String()+"/site-control", map[string]any{"is_live": false})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.True(t, f.siteControl(t, project.ID).IsLive)

	w = f.do(t, http.MethodGet, "/admin/alerts?unread=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alerts []activity.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, activity.AlertVercelPauseFailed, alerts[0].Type)

	w = f.do(t, http.MethodPost, "/admin/alerts/"+alerts[0].ID.String()+"/dismiss", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/admin/alerts?unread=true", nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = f.do(t, http.MethodPost, "/admin/alerts/"+uuid.NewString()+"/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFailedToggleLeavesAutoPauseUntouched(t *testing.T) {
	f := newFixture(t)
	f.vercel.Fail = errors.New("vercel 500")
	client := testutil.SeedClient(t, f.db, "a@example.com", "cus_1")
	project := testutil.SeedProject(t, f.db, client, "prj_vercel", access.SiteControl{IsLive: true, AutoPauseEnabled: true})

	w := f.do(t, http.MethodPut, "/admin/projects/"+project.ID.String()+"/site-control",
		map[string]any{"is_live": false, "auto_pause_enabled": false})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	sc := f.siteControl(t, project.ID)
	assert.True(t, sc.IsLive)
	assert.True(t, sc.AutoPauseEnabled)

	f.vercel.Fail = nil
	w = f.do(t, http.MethodPut, "/admin/projects/"+project.ID.String()+"/site-control",
		map[string]any{"is_live": false, "auto_pause_enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	sc = f.siteControl(t, project.ID)
	assert.False(t, sc.IsLive)
	assert.False(t, sc.AutoPauseEnabled)
}

func TestUpdateAutoPauseOnly(t *testing.T) {
	f := newFixture(t)
	client := testutil.SeedClient(t, f.db, "a@example.com", "cus_1")
	project := testutil.SeedProject(t, f.db, client, "", access.SiteControl{IsLive: true, AutoPauseEnabled: true})

	w := f.do(t, http.MethodPut, "/admin/projects/"+project.ID.String()+"/site-control", map[string]any{"auto_pause_enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.siteControl(t, project.ID).AutoPauseEnabled)
	assert.Empty(t, f.vercel.Paused)

	w = f.do(t, http.MethodPut, "/admin/projects/"+project.ID.String()+"/site-control", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSiteControlUnknownProject(t *testing.T) {
	f := newFixture(t)
	path := "/admin/projects/" + uuid.NewString() + "/site-control"

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, path, map[string]any{"is_live": false}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/admin/projects/nope/site-control", nil).Code)
}

func TestListVercelProjects(t *testing.T) {
	f := newFixture(t)
	f.vercel.Projects = []vercel.Project{{ID: "prj_1", Name: "acme"}}

	w := f.do(t, http.MethodGet, "/admin/vercel/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prj_1")

	f.vercel.Fail = errors.New("unauthorized")
	w = f.do(t, http.MethodGet, "/admin/vercel/projects", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListClients(t *testing.T) {
	f := newFixture(t)
	testutil.SeedClient(t, f.db, "a@example.com", "cus_1")
	testutil.SeedClient(t, f.db, "b@example.com", "")

	w := f.do(t, http.MethodGet, "/admin/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@example.com")
	assert.Contains(t, w.Body.String(), "b@example.com")
}
