package routes

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"groupifyserver/collections"
	"groupifyserver/webcodes"
)

// doUpload posts a multipart upload through the full router.
func doUpload(t *testing.T, env *testEnv, token, groupID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if groupID != "" {
		if err := mw.WriteField("groupId", groupID); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.WriteField("description", "lecture notes"); err != nil {
		t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.api.Router().ServeHTTP(w, r)
	return w
}

func newFileFixture(t *testing.T) (*testEnv, collections.Group, string, string) {
	t.Helper()
	env := newTestEnv(t)
	owner := env.addCaller("u1", "u1@example.com")
	outsider := env.addCaller("u3", "u3@example.com")
	env.seedUser(t, "u1", "u1@example.com")
	group := createGroupAs(t, env, owner)
	return env, group, owner, outsider
}

func TestUploadFile(t *testing.T) {
	env, group, owner, outsider := newFileFixture(t)

	w := doUpload(t, env, owner, group.ID, "notes.pdf", []byte("pdf bytes"))
	wantStatus(t, w, http.StatusCreated)

	var body struct {
		File collections.File `json:"file"`
	}
	decodeBody(t, w, &body)
	if body.File.FileName != "notes.pdf" || body.File.UploadedBy != "u1" {
		t.Errorf("file = %+v", body.File)
	}
	if !strings.HasPrefix(body.File.FileURL, "https://storage.googleapis.com/") {
		t.Errorf("fileUrl = %q, want a public storage URL", body.File.FileURL)
	}
	if body.File.FileSize != int64(len("pdf bytes")) {
		t.Errorf("fileSize = %d", body.File.FileSize)
	}
	if env.blobs.Len() != 1 {
		t.Errorf("blob store holds %d objects, want 1", env.blobs.Len())
	}

	// Non-members cannot upload into the group.
	w = doUpload(t, env, outsider, group.ID, "notes.pdf", []byte("x"))
	wantError(t, w, http.StatusForbidden, webcodes.MsgAccessDenied)

	// groupId is mandatory.
	w = doUpload(t, env, owner, "", "notes.pdf", []byte("x"))
	wantError(t, w, http.StatusBadRequest, "Group ID is required")
}

func TestUploadFileTooLarge(t *testing.T) {
	env, group, owner, _ := newFileFixture(t)

	oversized := make([]byte, maxUploadSize+1)
	w := doUpload(t, env, owner, group.ID, "huge.bin", oversized)
	wantError(t, w, http.StatusBadRequest, webcodes.MsgFileTooLarge)

	// The size ceiling fires before anything reaches the blob store.
	if env.blobs.Len() != 0 {
		t.Errorf("blob store holds %d objects, want 0 for a rejected upload", env.blobs.Len())
	}
}

func TestUploadFileMalformedBody(t *testing.T) {
	env, _, owner, _ := newFileFixture(t)

	// A part that never reaches its closing boundary is a bad body, not an
	// oversized one.
	body := "--xyz\r\nContent-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\n\r\ntruncated"
	r := httptest.NewRequest(http.MethodPost, "/api/files/upload", strings.NewReader(body))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	r.Header.Set("Authorization", "Bearer "+owner)
	w := httptest.NewRecorder()
	env.api.Router().ServeHTTP(w, r)

	wantError(t, w, http.StatusBadRequest, webcodes.MsgInvalidBody)
	if env.blobs.Len() != 0 {
		t.Errorf("blob store holds %d objects, want 0 for a rejected upload", env.blobs.Len())
	}
}

func TestGroupFiles(t *testing.T) {
	env, group, owner, outsider := newFileFixture(t)
	w := doUpload(t, env, owner, group.ID, "a.txt", []byte("a"))
	wantStatus(t, w, http.StatusCreated)
	w = doUpload(t, env, owner, group.ID, "b.txt", []byte("b"))
	wantStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodGet, "/api/files/group/"+group.ID, owner, nil)
	wantStatus(t, w, http.StatusOK)
	if bodyMap(t, w)["count"] != float64(2) {
		t.Errorf("count = %v, want 2", bodyMap(t, w)["count"])
	}

	w = env.do(t, http.MethodGet, "/api/files/group/"+group.ID, outsider, nil)
	wantError(t, w, http.StatusForbidden, webcodes.MsgAccessDenied)
}

func TestDeleteFileUploaderOnly(t *testing.T) {
	env, group, owner, _ := newFileFixture(t)
	member := env.addCaller("u2", "u2@example.com")
	env.seedUser(t, "u2", "u2@example.com")
	w := env.do(t, http.MethodPost, "/api/groups/join", member,
		map[string]string{"accessCode": group.AccessCode})
	wantStatus(t, w, http.StatusOK)

	w = doUpload(t, env, owner, group.ID, "notes.pdf", []byte("pdf bytes"))
	wantStatus(t, w, http.StatusCreated)
	var body struct {
		File collections.File `json:"file"`
	}
	decodeBody(t, w, &body)

	// A fellow member is not the uploader.
	w = env.do(t, http.MethodDelete, "/api/files/"+body.File.ID, member, nil)
	wantError(t, w, http.StatusForbidden, "Only file uploader can delete file")

	w = env.do(t, http.MethodDelete, "/api/files/"+body.File.ID, owner, nil)
	wantStatus(t, w, http.StatusOK)

	if env.blobs.Len() != 0 {
		t.Error("backing blob survived file deletion")
	}
	var gone collections.File
	if err := env.store.Get(nil, collections.Files, body.File.ID, &gone); err == nil {
		t.Error("file document survived deletion")
	}
}
