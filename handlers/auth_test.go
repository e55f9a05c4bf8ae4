package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/slim-api/auth"
)

type sessionBody struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	User         userInfo `json:"user"`
}

func signup(t *testing.T, env *testEnv, email string) sessionBody {
	t.Helper()
	rr := serve(env.handler.Signup, newRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": "correct-horse",
		"name":     "Alex Durand",
	}))
	expectStatus(t, rr, http.StatusCreated)

	var s sessionBody
	decodeData(t, decodeEnvelope(t, rr), &s)
	return s
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	s := signup(t, env, "Alex@Example.com")
	if s.Token == "" || s.RefreshToken == "" {
		t.Fatalf("missing tokens: %+v", s)
	}
	if s.User.Email != "alex@example.com" || s.User.Name != "Alex Durand" || s.User.IsAdmin {
		t.Errorf("unexpected user %+v", s.User)
	}

	rr := serve(env.handler.Signup, newRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "alex@example.com",
		"password": "another-password",
		"name":     "Alex",
	}))
	expectStatus(t, rr, http.StatusConflict)
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"empty body", nil},
		{"invalid email", map[string]string{"email": "not-an-email", "password": "correct-horse", "name": "A"}},
		{"short password", map[string]string{"email": "a@example.com", "password": "short", "name": "A"}},
		{"missing name", map[string]string{"email": "a@example.com", "password": "correct-horse"}},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(env.handler.Signup, newRequest(http.MethodPost, "/api/auth/signup", tt.body))
			expectStatus(t, rr, http.StatusBadRequest)
			if decodeEnvelope(t, rr).Success {
				t.Error("expected success=false")
			}
		})
	}
}

func TestSignin(t *testing.T) {
	env := newTestEnv(t)
	signup(t, env, "sam@example.com")

	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
		wantMsg  string
	}{
		{"valid credentials", map[string]string{"email": "SAM@example.com", "password": "correct-horse"}, http.StatusOK, "Signed in successfully"},
		{"wrong password", map[string]string{"email": "sam@example.com", "password": "wrong-password"}, http.StatusUnauthorized, "Invalid email or password"},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "correct-horse"}, http.StatusUnauthorized, "Invalid email or password"},
		{"missing password", map[string]string{"email": "sam@example.com"}, http.StatusBadRequest, "Email and password are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(env.handler.Signin, newRequest(http.MethodPost, "/api/auth/signin", tt.body))
			expectStatus(t, rr, tt.wantCode)
			if msg := decodeEnvelope(t, rr).Message; msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	env := newTestEnv(t)
	first := signup(t, env, "rotate@example.com")

	rr := serve(env.handler.Refresh, newRequest(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": first.RefreshToken}))
	expectStatus(t, rr, http.StatusOK)
	var second sessionBody
	decodeData(t, decodeEnvelope(t, rr), &second)
	if second.RefreshToken == "" || second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	rr = serve(env.handler.Refresh, newRequest(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": first.RefreshToken}))
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = serve(env.handler.Logout, newRequest(http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": second.RefreshToken}))
	expectStatus(t, rr, http.StatusOK)

	rr = serve(env.handler.Refresh, newRequest(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": second.RefreshToken}))
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = serve(env.handler.Refresh, newRequest(http.MethodPost, "/api/auth/refresh", map[string]string{}))
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	s := signup(t, env, "me@example.com")

	expired, err := auth.NewService(env.store, env.store, auth.Options{
		Secret: []byte("test-secret-that-is-long-enough-for-hs256"),
		Now:    func() time.Time { return testNow.Add(-time.Hour) },
	})
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.store.GetUserByEmail(t.Context(), "me@example.com")
	if err != nil {
		t.Fatal(err)
	}
	expiredToken, err := expired.IssueAccessToken(user)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantMsg  string
	}{
		{"no header", "", http.StatusUnauthorized, "Access token required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Access token required"},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, "Invalid token"},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized, "Token expired"},
		{"valid token", "Bearer " + s.Token, http.StatusOK, ""},
	}

	protected := env.handler.RequireAuth(http.HandlerFunc(env.handler.Me))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			expectStatus(t, rr, tt.wantCode)
			resp := decodeEnvelope(t, rr)
			if tt.wantMsg != "" && resp.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMsg)
			}
			if tt.wantCode == http.StatusOK {
				var me map[string]any
				decodeData(t, resp, &me)
				if me["email"] != "me@example.com" {
					t.Errorf("me = %v", me)
				}
				if _, leaked := me["passwordHash"]; leaked {
					t.Error("password hash serialised")
				}
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	patient := signup(t, env, "patient@example.com")

	reached := false
	chain := env.handler.RequireAuth(env.handler.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})))

	req := newRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+patient.Token)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusForbidden)
	if reached {
		t.Fatal("non-admin reached the admin handler")
	}

	rr = httptest.NewRecorder()
	env.handler.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, env.asAdmin(t, newRequest(http.MethodGet, "/api/admin/stats", nil)))
	expectStatus(t, rr, http.StatusNoContent)
	if !reached {
		t.Error("admin did not reach the handler")
	}
}
