package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/auth"
	"resumeforge/internal/database"
)

func newResumeRouter(t *testing.T, db *gorm.DB, svc *auth.Service, maxResumes int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewResumeHandler(db, maxResumes)
	session := middleware.SessionMiddleware(svc, db)
	optionalSession := middleware.OptionalSessionMiddleware(svc, db)
	router.POST("/api/resumes", session, h.CreateResume)
	router.GET("/api/resumes", session, h.ListResumes)
	router.GET("/api/resumes/:id", optionalSession, h.GetResume)
	router.PUT("/api/resumes/:id", session, h.UpdateResume)
	router.DELETE("/api/resumes/:id", session, h.DeleteResume)
	return router
}

func resumePath(id uint) string {
	return "/api/resumes/" + strconv.FormatUint(uint64(id), 10)
}

func TestCreateResume_PersistsValidContent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "resumes@example.com")
	token := accessTokenFor(t, svc, user.ID)
	router := newResumeRouter(t, db, svc, 10)

	body := fmt.Sprintf(`{"title":"My resume","content":%s}`, sampleResumeJSON)
	w := doJSON(t, router, http.MethodPost, "/api/resumes", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var resp resumeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.ID == 0 || resp.Title != "My resume" || resp.IsPublic {
		t.Fatalf("response = %+v", resp)
	}

	var stored database.Resume
	if err := db.First(&stored, resp.ID).Error; err != nil {
		t.Fatalf("resume not persisted: %v", err)
	}
	if stored.UserID != user.ID {
		t.Fatalf("stored user_id = %d, want %d", stored.UserID, user.ID)
	}
}

func TestCreateResume_RejectsMalformedContent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "resumes@example.com")
	token := accessTokenFor(t, svc, user.ID)
	router := newResumeRouter(t, db, svc, 10)

	cases := []struct {
		name string
		body string
	}{
		{"missing content", `{"title":"x"}`},
		{"content is a string", `{"title":"x","content":"not structured"}`},
		{"unknown field", `{"title":"x","content":{"personal":{"full_name":"Ada"},"hobbies":["chess"]}}`},
		{"missing full name", `{"title":"x","content":{"personal":{"email":"a@example.com"}}}`},
		{"experience without company", `{"title":"x","content":{"personal":{"full_name":"Ada"},"experience":[{"title":"Engineer"}]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/resumes", token, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
			}
		})
	}

	var count int64
	if err := db.Model(&database.Resume{}).Count(&count).Error; err != nil {
		t.Fatalf("count resumes: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no resumes stored, got %d", count)
	}
}

func TestCreateResume_EnforcesLimit(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "resumes@example.com")
	token := accessTokenFor(t, svc, user.ID)
	router := newResumeRouter(t, db, svc, 2)

	seedResume(t, db, user.ID, false)
	seedResume(t, db, user.ID, false)

	body := fmt.Sprintf(`{"title":"One too many","content":%s}`, sampleResumeJSON)
	w := doJSON(t, router, http.MethodPost, "/api/resumes", token, body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetResume_PublicReadableAnonymously(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	owner := seedUser(t, db, "owner@example.com")
	router := newResumeRouter(t, db, svc, 10)

	public := seedResume(t, db, owner.ID, true)
	private := seedResume(t, db, owner.ID, false)

	// 公开简历无需会话即可读取。
	w := doJSON(t, router, http.MethodGet, resumePath(public.ID), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("public resume: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp resumeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.ID != public.ID {
		t.Fatalf("resume id = %d, want %d", resp.ID, public.ID)
	}

	// 私有简历对匿名访问不可见，且与"不存在"不可区分。
	w = doJSON(t, router, http.MethodGet, resumePath(private.ID), "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("private resume: expected 404 got %d body=%s", w.Code, w.Body.String())
	}

	// 所有者读自己的私有简历正常。
	ownerToken := accessTokenFor(t, svc, owner.ID)
	w = doJSON(t, router, http.MethodGet, resumePath(private.ID), ownerToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("owner read: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateResume_OwnerScoped(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	router := newResumeRouter(t, db, svc, 10)

	model := seedResume(t, db, owner.ID, false)
	body := fmt.Sprintf(`{"title":"Renamed","content":%s}`, sampleResumeJSON)

	// 非所有者更新得到 404，不泄露简历是否存在。
	otherToken := accessTokenFor(t, svc, other.ID)
	w := doJSON(t, router, http.MethodPut, resumePath(model.ID), otherToken, body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("other user update: expected 404 got %d body=%s", w.Code, w.Body.String())
	}

	ownerToken := accessTokenFor(t, svc, owner.ID)
	w = doJSON(t, router, http.MethodPut, resumePath(model.ID), ownerToken, body)
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.Resume
	if err := db.First(&stored, model.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if stored.Title != "Renamed" {
		t.Fatalf("title = %q, want %q", stored.Title, "Renamed")
	}
}

func TestUpdateResume_RejectsMalformedContent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	owner := seedUser(t, db, "owner@example.com")
	token := accessTokenFor(t, svc, owner.ID)
	router := newResumeRouter(t, db, svc, 10)

	model := seedResume(t, db, owner.ID, false)

	w := doJSON(t, router, http.MethodPut, resumePath(model.ID), token,
		`{"title":"Broken","content":{"personal":{}}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.Resume
	if err := db.First(&stored, model.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if stored.Title == "Broken" {
		t.Fatal("malformed update must not be persisted")
	}
}

func TestDeleteResume_OwnerScoped(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	router := newResumeRouter(t, db, svc, 10)

	model := seedResume(t, db, owner.ID, false)

	otherToken := accessTokenFor(t, svc, other.ID)
	w := doJSON(t, router, http.MethodDelete, resumePath(model.ID), otherToken, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("other user delete: expected 404 got %d body=%s", w.Code, w.Body.String())
	}

	ownerToken := accessTokenFor(t, svc, owner.ID)
	w = doJSON(t, router, http.MethodDelete, resumePath(model.ID), ownerToken, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("owner delete: expected 204 got %d body=%s", w.Code, w.Body.String())
	}

	// 删除后再删与再读都是 404。
	w = doJSON(t, router, http.MethodDelete, resumePath(model.ID), ownerToken, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404 got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, resumePath(model.ID), ownerToken, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("read after delete: expected 404 got %d", w.Code)
	}
}

func TestListResumes_OnlyOwn(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	router := newResumeRouter(t, db, svc, 10)

	mine := seedResume(t, db, owner.ID, false)
	seedResume(t, db, other.ID, true)

	token := accessTokenFor(t, svc, owner.ID)
	w := doJSON(t, router, http.MethodGet, "/api/resumes", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var items []resumeListItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(items) != 1 || items[0].ID != mine.ID {
		t.Fatalf("items = %+v, want only resume %d", items, mine.ID)
	}
}
