package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"groupifyserver/collections"
	"groupifyserver/groupauth"
	"groupifyserver/testutil"
)

// testEnv bundles an API wired to in-memory fakes.
type testEnv struct {
	api      *API
	store    *testutil.MemStore
	accounts *testutil.FakeAccounts
	blobs    *testutil.FakeBlobStore
	verifier *testutil.FakeVerifier
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    testutil.NewMemStore(),
		accounts: testutil.NewFakeAccounts(),
		blobs:    testutil.NewFakeBlobStore(),
		verifier: &testutil.FakeVerifier{Tokens: map[string]groupauth.Caller{}},
		now:      time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC),
	}
	env.api = New(env.store, env.accounts, env.blobs, env.verifier, nil)
	env.api.now = func() time.Time { return env.now }
	return env
}

// addCaller registers a token for uid and returns it.
func (e *testEnv) addCaller(uid, email string) string {
	token := "token-" + uid
	e.verifier.Tokens[token] = groupauth.Caller{UID: uid, Email: email}
	return token
}

func (e *testEnv) seedUser(t *testing.T, uid, email string, groupIDs ...string) {
	t.Helper()
	if groupIDs == nil {
		groupIDs = []string{}
	}
	err := e.store.Set(nil, collections.Users, uid, collections.User{
		UID:               uid,
		FullName:          "User " + uid,
		Email:             email,
		HasSeenOnboarding: true,
		GroupIDs:          groupIDs,
		CreatedAt:         e.now,
		LastLogin:         e.now,
	})
	if err != nil {
		t.Fatalf("seeding user %s: %v", uid, err)
	}
}

func (e *testEnv) seedGroup(t *testing.T, id string, group collections.Group) {
	t.Helper()
	if err := e.store.Set(nil, collections.Groups, id, group); err != nil {
		t.Fatalf("seeding group %s: %v", id, err)
	}
}

// do runs the request through the full router, guard included.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, path, rd)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.api.Router().ServeHTTP(w, r)
	return w
}

// bodyMap decodes the response body into a generic map.
func bodyMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	m := map[string]interface{}{}
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("response body did not decode: %v\nbody: %s", err, w.Body.String())
	}
	return m
}

// decodeBody decodes the response body into dst.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("response body did not decode: %v\nbody: %s", err, w.Body.String())
	}
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, status, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	wantStatus(t, w, status)
	body := bodyMap(t, w)
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["error"] != msg {
		t.Errorf("error = %q, want %q", body["error"], msg)
	}
}
