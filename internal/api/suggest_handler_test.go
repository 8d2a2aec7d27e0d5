package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeforge/internal/ai"
	"resumeforge/internal/api/middleware"
	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	"resumeforge/internal/errcode"
)

func newSuggestRouter(t *testing.T, db *gorm.DB, svc *auth.Service, client *ai.Client, status config.DependencyStatus) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewSuggestHandler(client, status, slog.Default())
	router.POST("/api/suggest", middleware.SessionMiddleware(svc, db), h.Suggest)
	return router
}

func testLLMClient(serverURL string) *ai.Client {
	return ai.NewClient(config.LLMConfig{
		BaseURL:        serverURL,
		APIKey:         "test-key",
		Model:          "test-model",
		TimeoutSeconds: 5,
	})
}

func TestSuggest_ReturnsSuggestions(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "suggest@example.com")
	token := accessTokenFor(t, svc, user.ID)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"- Quantify the cost reduction\n- Lead with the outcome"}}]}`))
	}))
	defer server.Close()

	router := newSuggestRouter(t, db, svc, testLLMClient(server.URL), config.DependencyStatus{OK: true})
	w := doJSON(t, router, http.MethodPost, "/api/suggest", token,
		`{"section":"experience","text":"Reduced infra cost."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("suggestions = %+v, want 2 entries", resp.Suggestions)
	}
	if !strings.Contains(resp.Suggestions[0], "Quantify") {
		t.Fatalf("first suggestion = %q", resp.Suggestions[0])
	}
}

func TestSuggest_MisconfiguredLLM(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "suggest@example.com")
	token := accessTokenFor(t, svc, user.ID)

	// LLM 未配置时不应发出任何上游请求，客户端指向必然失败的地址即可验证。
	client := testLLMClient("http://127.0.0.1:1")
	status := config.DependencyStatus{OK: false, Reason: "llm api key is not set"}

	router := newSuggestRouter(t, db, svc, client, status)
	w := doJSON(t, router, http.MethodPost, "/api/suggest", token,
		`{"section":"summary","text":"I write software."}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "service temporarily unavailable") {
		t.Fatalf("body = %s, want the generic misconfiguration message", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "api key") {
		t.Fatalf("body = %s, must not leak the configuration reason", w.Body.String())
	}
}

func TestSuggest_UpstreamFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "suggest@example.com")
	token := accessTokenFor(t, svc, user.ID)

	// 4xx 不重试，直接作为域失败返回给调用方。
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	router := newSuggestRouter(t, db, svc, testLLMClient(server.URL), config.DependencyStatus{OK: true})
	w := doJSON(t, router, http.MethodPost, "/api/suggest", token,
		`{"section":"summary","text":"I write software."}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Code != errcode.DomainFailure || resp.Error == "" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestSuggest_RejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t)
	user := seedUser(t, db, "suggest@example.com")
	token := accessTokenFor(t, svc, user.ID)

	router := newSuggestRouter(t, db, svc, testLLMClient("http://127.0.0.1:1"), config.DependencyStatus{OK: true})

	cases := []string{
		`{}`,
		`{"section":"summary"}`,
		`{"text":"no section"}`,
	}
	for _, body := range cases {
		if w := doJSON(t, router, http.MethodPost, "/api/suggest", token, body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, w.Code)
		}
	}

	// 无会话直接拒绝，不触碰 LLM。
	if w := doJSON(t, router, http.MethodPost, "/api/suggest", "", `{"section":"summary","text":"x"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}
