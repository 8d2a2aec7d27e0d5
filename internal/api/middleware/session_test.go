package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumeforge/internal/auth"
	"resumeforge/internal/database"
	"resumeforge/internal/errcode"
)

var sessionDBSeq atomic.Int64

func newSessionTestEnv(t *testing.T) (*gorm.DB, *auth.Service, database.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:sessiontest%d?mode=memory&cache=shared", sessionDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := auth.NewServiceFromPEM(privPEM, pubPEM, 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("build auth service: %v", err)
	}

	user := database.User{Email: "session@example.com", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return db, svc, user
}

func newSessionRouter(db *gorm.DB, svc *auth.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", SessionMiddleware(svc, db), func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestSessionMiddleware_AcceptsBearerToken(t *testing.T) {
	db, svc, user := newSessionTestEnv(t)
	router := newSessionRouter(db, svc)

	pair, err := svc.GenerateTokenPair(user.ID)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSessionMiddleware_AcceptsSessionCookie(t *testing.T) {
	db, svc, user := newSessionTestEnv(t)
	router := newSessionRouter(db, svc)

	pair, err := svc.GenerateTokenPair(user.ID)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionTokenCookieName, Value: pair.AccessToken})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSessionMiddleware_RejectsMissingAndInvalidTokens(t *testing.T) {
	db, svc, _ := newSessionTestEnv(t)
	router := newSessionRouter(db, svc)

	for _, header := range []string{"", "Bearer not-a-token", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401 got %d", header, w.Code)
		}
		if want := fmt.Sprintf(`"code":%d`, errcode.Unauthorized); !strings.Contains(w.Body.String(), want) {
			t.Fatalf("header %q: body %s missing %s", header, w.Body.String(), want)
		}
	}
}

func TestSessionMiddleware_RejectsRefreshTokenAsSession(t *testing.T) {
	db, svc, user := newSessionTestEnv(t)
	router := newSessionRouter(db, svc)

	pair, err := svc.GenerateTokenPair(user.ID)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token, got %d", w.Code)
	}
}

func TestSessionMiddleware_RejectsDeletedUser(t *testing.T) {
	db, svc, user := newSessionTestEnv(t)
	router := newSessionRouter(db, svc)

	pair, err := svc.GenerateTokenPair(user.ID)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}
	if err := db.Unscoped().Delete(&database.User{}, user.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after user deletion, got %d", w.Code)
	}
}

func TestSessionMiddleware_RedirectsBrowserRequests(t *testing.T) {
	db, svc, _ := newSessionTestEnv(t)
	router := newSessionRouter(db, svc)

	req := httptest.NewRequest(http.MethodGet, "/protected?tab=resumes", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 got %d", w.Code)
	}
	location := w.Header().Get("Location")
	if !strings.HasPrefix(location, "/login?next=") {
		t.Fatalf("expected redirect to login with next param, got %q", location)
	}
}
