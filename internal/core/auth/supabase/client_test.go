package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-app-api/internal/core/auth"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"
)

func testClient(serverURL string) *Client {
	return NewClient(&config.Config{
		Supabase: config.SupabaseConfig{
			URL:     serverURL,
			AnonKey: "anon-key",
			Timeout: 5 * time.Second,
		},
	})
}

func sessionBody(token, userID string) string {
	return `{
		"access_token": "` + token + `",
		"refresh_token": "refresh-1",
		"expires_in": 3600,
		"user": {"id": "` + userID + `", "email": "a@b.c", "user_metadata": {"username": "alice"}}
	}`
}

func TestSignInWithPassword_ParsesSessionAndDispatchesEvent(t *testing.T) {
	var gotPath, gotGrant, gotAPIKey string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotGrant = r.URL.Query().Get("grant_type")
		gotAPIKey = r.Header.Get("apikey")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sessionBody("tok-1", "u1")))
	}))
	defer server.Close()

	client := testClient(server.URL)

	var events []string
	client.OnAuthChange(func(event string, session *auth.Session) {
		events = append(events, event)
	})

	session, err := client.SignInWithPassword(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/auth/v1/token" || gotGrant != "password" {
		t.Errorf("unexpected request %s?grant_type=%s", gotPath, gotGrant)
	}
	if gotAPIKey != "anon-key" {
		t.Errorf("expected apikey header, got %q", gotAPIKey)
	}
	if gotBody["email"] != "a@b.c" || gotBody["password"] != "secret" {
		t.Errorf("unexpected body %+v", gotBody)
	}

	if session.AccessToken != "tok-1" {
		t.Errorf("expected access token tok-1, got %q", session.AccessToken)
	}
	if session.User == nil || session.User.ID != "u1" {
		t.Errorf("expected user u1, got %+v", session.User)
	}
	if session.User.Metadata["username"] != "alice" {
		t.Errorf("expected username metadata, got %+v", session.User.Metadata)
	}
	if session.ExpiresAt <= time.Now().Unix() {
		t.Errorf("expected future expiry, got %d", session.ExpiresAt)
	}

	if len(events) != 1 || events[0] != auth.EventSignedIn {
		t.Errorf("expected single SIGNED_IN event, got %v", events)
	}
}

func TestSignInWithPassword_BadCredentialsIsAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "Invalid login credentials"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.SignInWithPassword(context.Background(), "a@b.c", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if !common.IsCode(err, common.ErrCodeAuth) {
		t.Errorf("expected code %s, got %s", common.ErrCodeAuth, common.ErrorCode(err))
	}
}

func TestSignUp_WithAutoConfirmReturnsUserAndSession(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(sessionBody("tok-2", "u2")))
	}))
	defer server.Close()

	client := testClient(server.URL)
	user, session, err := client.SignUp(context.Background(), "a@b.c", "secret", map[string]string{"username": "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data, ok := gotBody["data"].(map[string]interface{}); !ok || data["username"] != "alice" {
		t.Errorf("expected metadata in signup body, got %+v", gotBody["data"])
	}
	if user == nil || user.ID != "u2" {
		t.Errorf("expected user u2, got %+v", user)
	}
	if session == nil || session.AccessToken != "tok-2" {
		t.Errorf("expected session, got %+v", session)
	}
}

func TestSignUp_ConfirmationRequiredReturnsUserWithoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 需要信箱確認時 GoTrue 直接回傳使用者物件
		w.Write([]byte(`{"id": "u3", "email": "a@b.c"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	user, session, err := client.SignUp(context.Background(), "a@b.c", "secret", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != "u3" {
		t.Errorf("expected user u3, got %+v", user)
	}
	if session != nil {
		t.Errorf("expected no session, got %+v", session)
	}
}

func TestGetSession_ReturnsNilWithoutSignIn(t *testing.T) {
	client := testClient("http://localhost:1")
	session, err := client.GetSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("expected nil session, got %+v", session)
	}
}

func TestSignOut_ClearsSessionAndDispatchesEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			w.Write([]byte(sessionBody("tok-4", "u4")))
		case "/auth/v1/logout":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-4" {
				t.Errorf("expected bearer token, got %q", got)
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	if _, err := client.SignInWithPassword(context.Background(), "a@b.c", "secret"); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	var events []string
	client.OnAuthChange(func(event string, session *auth.Session) {
		events = append(events, event)
	})

	if err := client.SignOut(context.Background(), "tok-4"); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}

	session, err := client.GetSession(context.Background())
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if session != nil {
		t.Errorf("expected session cleared, got %+v", session)
	}
	if len(events) != 1 || events[0] != auth.EventSignedOut {
		t.Errorf("expected SIGNED_OUT event, got %v", events)
	}
}

func TestCreateProfile_WritesRowWithEmptyPasswordHash(t *testing.T) {
	var gotRows []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotRows)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := testClient(server.URL)
	err := client.CreateProfile(context.Background(), auth.ProfileRow{
		AuthUserID: "u1",
		Username:   "alice",
		Email:      "a@b.c",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotRows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(gotRows))
	}
	row := gotRows[0]
	if row["auth_user_id"] != "u1" || row["username"] != "alice" {
		t.Errorf("unexpected row %+v", row)
	}
	if row["password_hash"] != "" {
		t.Errorf("expected empty password_hash, got %v", row["password_hash"])
	}
}

func TestSaveAndListRecipes_UseCallerCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/recipes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("expected user credential, got %q", got)
		}
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			if got := r.URL.Query().Get("created_by_user_id"); got != "eq.u1" {
				t.Errorf("expected user filter, got %q", got)
			}
			w.Write([]byte(`[{"id": 1, "name": "Tomato Soup", "created_by_user_id": "u1"}]`))
		}
	}))
	defer server.Close()

	client := testClient(server.URL)

	err := client.SaveRecipe(context.Background(), "user-token", SavedRecipe{
		Name:            "Tomato Soup",
		CreatedByUserID: "u1",
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	recipes, err := client.ListRecipes(context.Background(), "user-token", "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recipes) != 1 || recipes[0].Name != "Tomato Soup" {
		t.Errorf("unexpected recipes %+v", recipes)
	}
}
