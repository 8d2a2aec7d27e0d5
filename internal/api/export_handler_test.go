package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeforge/internal/analytics"
	"resumeforge/internal/api/middleware"
	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	"resumeforge/internal/database"
)

const sampleResumeJSON = `{
  "personal": {"full_name": "Ada Lovelace", "email": "ada@example.com", "location": "London"},
  "summary": "Engineer focused on analytical machines.",
  "experience": [
    {"company": "Analytical Engines Ltd", "title": "Principal Engineer",
     "start_date": "2019-01", "end_date": "", "current": true,
     "highlights": ["Designed the first general-purpose program"]}
  ],
  "education": [
    {"school": "University of London", "degree": "BSc", "field": "Mathematics", "start_year": 2010, "end_year": 2014}
  ],
  "skills": ["Go", "Distributed systems"]
}`

func newExportRouter(t *testing.T, db *gorm.DB, svc *auth.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewExportHandler(db, analytics.NewClient(config.AnalyticsConfig{}, slog.Default()), slog.Default())
	router.POST("/api/export-pdf", middleware.SessionMiddleware(svc, db), h.ExportResume)
	return router
}

func seedResume(t *testing.T, db *gorm.DB, userID uint, isPublic bool) database.Resume {
	t.Helper()
	model := database.Resume{
		Title:    "Test resume",
		Content:  datatypes.JSON([]byte(sampleResumeJSON)),
		IsPublic: isPublic,
		UserID:   userID,
	}
	if err := db.Create(&model).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return model
}

func TestExportResume_Success(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "export@example.com")
	token := accessTokenFor(t, svc, user.ID)
	model := seedResume(t, db, user.ID, false)
	router := newExportRouter(t, db, svc)

	body := fmt.Sprintf(`{"resumeId": %d, "templateId": "classic"}`, model.ID)
	w := doJSON(t, router, http.MethodPost, "/api/export-pdf", token, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp exportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(resp.HTML, "Ada Lovelace") {
		t.Fatal("expected rendered html to contain the candidate name")
	}
	if !strings.Contains(resp.HTML, "Analytical Engines Ltd") {
		t.Fatal("expected rendered html to contain the employer")
	}
	if !resp.Validation.Passed {
		t.Fatalf("expected the classic template to pass validation, report=%+v", resp.Validation)
	}
}

func TestExportResume_UnknownResume(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "export@example.com")
	token := accessTokenFor(t, svc, user.ID)
	router := newExportRouter(t, db, svc)

	w := doJSON(t, router, http.MethodPost, "/api/export-pdf", token, `{"resumeId": 999, "templateId": "classic"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestExportResume_UnknownTemplate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "export@example.com")
	token := accessTokenFor(t, svc, user.ID)
	model := seedResume(t, db, user.ID, false)
	router := newExportRouter(t, db, svc)

	body := fmt.Sprintf(`{"resumeId": %d, "templateId": "no-such-template"}`, model.ID)
	w := doJSON(t, router, http.MethodPost, "/api/export-pdf", token, body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestExportResume_InvalidCustomization(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "export@example.com")
	token := accessTokenFor(t, svc, user.ID)
	model := seedResume(t, db, user.ID, false)
	router := newExportRouter(t, db, svc)

	body := fmt.Sprintf(`{"resumeId": %d, "templateId": "classic", "customizations": {"accentColor": "red"}}`, model.ID)
	w := doJSON(t, router, http.MethodPost, "/api/export-pdf", token, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestExportResume_OwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	token := accessTokenFor(t, svc, other.ID)
	router := newExportRouter(t, db, svc)

	private := seedResume(t, db, owner.ID, false)
	public := seedResume(t, db, owner.ID, true)

	body := fmt.Sprintf(`{"resumeId": %d, "templateId": "classic"}`, private.ID)
	w := doJSON(t, router, http.MethodPost, "/api/export-pdf", token, body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's private resume, got %d", w.Code)
	}

	body = fmt.Sprintf(`{"resumeId": %d, "templateId": "classic"}`, public.ID)
	w = doJSON(t, router, http.MethodPost, "/api/export-pdf", token, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a public resume, got %d body=%s", w.Code, w.Body.String())
	}
}
