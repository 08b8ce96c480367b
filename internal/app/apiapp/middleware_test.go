package apiapp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/locazos/stream-mate-match/internal/config"
	authsvc "github.com/locazos/stream-mate-match/internal/services/auth"
)

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":   {"abc", true},
		"bearer  abc ": {"abc", true},
		"Basic abc":    {"", false},
		"Bearer":       {"", false},
		"":             {"", false},
	}
	for header, want := range cases {
		token, ok := extractBearerToken(header)
		if token != want.token || ok != want.ok {
			t.Fatalf("extractBearerToken(%q) = %q,%v want %q,%v", header, token, ok, want.token, want.ok)
		}
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	verifier := authsvc.NewVerifier(authsvc.Config{Secret: "secret"})
	token, _, err := verifier.GenerateAccessToken("user-1", "authenticated", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	mw := AuthMiddleware(verifier, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	var seen authsvc.Identity
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = authsvc.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
	if seen.UserID != "user-1" || seen.Role != "authenticated" {
		t.Fatalf("unexpected identity: %+v", seen)
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	mw := AuthMiddleware(authsvc.NewVerifier(authsvc.Config{Secret: "secret"}), zap.NewNop())

	for _, header := range []string{"", "Bearer nope"} {
		req := httptest.NewRequest(http.MethodGet, "/feed", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()

		mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Fatalf("handler must not be called on invalid token")
		})).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status for %q: got %d want %d", header, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestAppServesSwipeFlowOnSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.StoreDriverSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "app.db")
	cfg.Redis.Enabled = false
	cfg.S3.Enabled = false
	cfg.Auth.JWTSecret = "app-secret"
	cfg.Auth.JWTAudience = ""

	app, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})

	verifier := authsvc.NewVerifier(authsvc.Config{Secret: "app-secret"})
	tokenFor := func(userID string) string {
		token, _, err := verifier.GenerateAccessToken(userID, "authenticated", time.Minute)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		return token
	}

	call := func(method, path, userID string, body any) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
		req := httptest.NewRequest(method, path, &buf)
		if userID != "" {
			req.Header.Set("Authorization", "Bearer "+tokenFor(userID))
		}
		rr := httptest.NewRecorder()
		app.Handler().ServeHTTP(rr, req)
		return rr
	}

	if rr := call(http.MethodGet, "/healthz", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rr.Code)
	}
	if rr := call(http.MethodGet, "/feed", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("feed without token: %d", rr.Code)
	}

	for _, id := range []string{"ana", "ben"} {
		if rr := call(http.MethodPut, "/profile", id, map[string]any{"display_name": id}); rr.Code != http.StatusOK {
			t.Fatalf("put profile %s: %d %s", id, rr.Code, rr.Body.String())
		}
	}

	rr := call(http.MethodGet, "/feed/next", "ana", nil)
	var next struct {
		Profile *struct {
			ID string `json:"id"`
		} `json:"profile"`
		Exhausted bool `json:"exhausted"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode next: %v", err)
	}
	if next.Profile == nil || next.Profile.ID != "ben" {
		t.Fatalf("unexpected next candidate: %s", rr.Body.String())
	}

	call(http.MethodPost, "/swipe", "ana", map[string]string{"target_id": "ben", "direction": "right"})
	rr = call(http.MethodPost, "/swipe", "ben", map[string]string{"target_id": "ana", "direction": "right"})
	var swipe struct {
		MatchCreated bool `json:"match_created"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &swipe); err != nil {
		t.Fatalf("decode swipe: %v", err)
	}
	if !swipe.MatchCreated {
		t.Fatalf("expected match: %s", rr.Body.String())
	}

	rr = call(http.MethodGet, "/matches", "ana", nil)
	var list struct {
		Items []struct {
			Counterpart struct {
				ID string `json:"id"`
			} `json:"counterpart"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode matches: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Counterpart.ID != "ben" {
		t.Fatalf("unexpected matches: %s", rr.Body.String())
	}
}
