package routes

import (
	"net/http"
	"testing"

	"groupifyserver/collections"
	"groupifyserver/storage"
	"groupifyserver/webcodes"
)

func validSignup() map[string]interface{} {
	return map[string]interface{}{
		"fullName":  "Jamie Cruz",
		"email":     "Jamie.Cruz@Example.Com",
		"password":  "hunter2hunter2",
		"school":    "State University",
		"course":    "Computer Science",
		"yearLevel": "3",
		"section":   "B",
	}
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", validSignup())
	wantStatus(t, w, http.StatusCreated)

	var body struct {
		Success     bool             `json:"success"`
		CustomToken string           `json:"customToken"`
		User        collections.User `json:"user"`
		RedirectTo  string           `json:"redirectTo"`
	}
	decodeBody(t, w, &body)
	if !body.Success {
		t.Fatal("success = false")
	}
	if body.User.Email != "jamie.cruz@example.com" {
		t.Errorf("email = %q, want it lower-cased", body.User.Email)
	}
	if !body.User.HasSeenOnboarding {
		t.Error("hasSeenOnboarding = false, want true after signup")
	}
	if body.CustomToken == "" {
		t.Error("customToken missing")
	}
	if body.RedirectTo != "home" {
		t.Errorf("redirectTo = %q, want home", body.RedirectTo)
	}

	// The stored document matches what was returned.
	var stored collections.User
	if err := env.store.Get(nil, collections.Users, body.User.UID, &stored); err != nil {
		t.Fatalf("user document missing after signup: %v", err)
	}
	if stored.Email != "jamie.cruz@example.com" || !stored.HasSeenOnboarding {
		t.Errorf("stored user = %+v", stored)
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name     string
		mutate   func(map[string]interface{})
		expected string
	}{
		{
			name:     "missing field",
			mutate:   func(m map[string]interface{}) { delete(m, "school") },
			expected: "All fields are required",
		},
		{
			name:     "empty field",
			mutate:   func(m map[string]interface{}) { m["fullName"] = "" },
			expected: "All fields are required",
		},
		{
			name:     "bad email",
			mutate:   func(m map[string]interface{}) { m["email"] = "not-an-email" },
			expected: "Invalid email format",
		},
		{
			name:     "short password",
			mutate:   func(m map[string]interface{}) { m["password"] = "short" },
			expected: "Password must be at least 8 characters",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSignup()
			tc.mutate(req)
			w := env.do(t, http.MethodPost, "/api/auth/signup", "", req)
			wantError(t, w, http.StatusBadRequest, tc.expected)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/signup", "", validSignup())
	wantStatus(t, w, http.StatusCreated)

	// Same email with different casing still collides.
	again := validSignup()
	again["email"] = "JAMIE.CRUZ@EXAMPLE.COM"
	w = env.do(t, http.MethodPost, "/api/auth/signup", "", again)
	wantError(t, w, http.StatusConflict, webcodes.MsgEmailExists)
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)
	token := env.addCaller("u1", "u1@example.com")
	env.seedUser(t, "u1", "u1@example.com")

	w := env.do(t, http.MethodGet, "/api/auth/verify", token, nil)
	wantStatus(t, w, http.StatusOK)
	body := bodyMap(t, w)
	if body["redirectTo"] != "home" {
		t.Errorf("redirectTo = %v, want home for an onboarded user", body["redirectTo"])
	}
}

func TestVerifyWithoutUserDoc(t *testing.T) {
	env := newTestEnv(t)
	token := env.addCaller("ghost", "ghost@example.com")

	w := env.do(t, http.MethodGet, "/api/auth/verify", token, nil)
	wantStatus(t, w, http.StatusNotFound)
	body := bodyMap(t, w)
	if body["requiresAuth"] != true {
		t.Error("requiresAuth missing on verify 404")
	}
}

func TestVerifyRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth/verify", "", nil)
	wantStatus(t, w, http.StatusUnauthorized)
	if bodyMap(t, w)["requiresAuth"] != true {
		t.Error("requiresAuth missing on 401")
	}
}

func TestCompleteOnboarding(t *testing.T) {
	env := newTestEnv(t)
	token := env.addCaller("u1", "u1@example.com")
	env.seedUser(t, "u1", "u1@example.com")
	err := env.store.Update(nil, collections.Users, "u1", []storage.Update{
		{Path: collections.OnboardingField, Value: false},
	})
	if err != nil {
		t.Fatal(err)
	}

	w := env.do(t, http.MethodPost, "/api/auth/complete-onboarding", token, nil)
	wantStatus(t, w, http.StatusOK)

	var user collections.User
	if err := env.store.Get(nil, collections.Users, "u1", &user); err != nil {
		t.Fatal(err)
	}
	if !user.HasSeenOnboarding {
		t.Error("hasSeenOnboarding still false")
	}
}

func TestUpdateEmail(t *testing.T) {
	env := newTestEnv(t)
	token := env.addCaller("u1", "old@example.com")
	env.seedUser(t, "u1", "old@example.com")

	w := env.do(t, http.MethodPut, "/api/auth/update-email", token,
		map[string]string{"newEmail": "New@Example.Com"})
	wantStatus(t, w, http.StatusOK)

	var user collections.User
	if err := env.store.Get(nil, collections.Users, "u1", &user); err != nil {
		t.Fatal(err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("email = %q, want new@example.com", user.Email)
	}

	w = env.do(t, http.MethodPut, "/api/auth/update-email", token, map[string]string{})
	wantError(t, w, http.StatusBadRequest, "New email is required")

	w = env.do(t, http.MethodPut, "/api/auth/update-email", token,
		map[string]string{"newEmail": "nope"})
	wantError(t, w, http.StatusBadRequest, "Invalid email format")
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	token := env.addCaller("u1", "u1@example.com")
	env.seedUser(t, "u1", "u1@example.com")

	w := env.do(t, http.MethodDelete, "/api/auth/delete-account", token, nil)
	wantStatus(t, w, http.StatusOK)

	var user collections.User
	if err := env.store.Get(nil, collections.Users, "u1", &user); err == nil {
		t.Error("user document survived account deletion")
	}
	if len(env.accounts.Deleted) != 1 || env.accounts.Deleted[0] != "u1" {
		t.Errorf("identity provider deletions = %v, want [u1]", env.accounts.Deleted)
	}
}
