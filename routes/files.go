package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	log "groupifyserver/cloudlog"
	"groupifyserver/collections"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
	"groupifyserver/webcodes"
)

const maxUploadSize = 10 << 20 // 10 MB ceiling, enforced before the blob store

func (api *API) registerFiles(r *mux.Router) {
	r.HandleFunc("/upload", api.guard.Handle(api.uploadFile)).Methods(http.MethodPost)
	r.HandleFunc("/group/{groupId}", api.guard.Handle(api.groupFiles)).Methods(http.MethodGet)
	r.HandleFunc("/{fileId}", api.guard.Handle(api.deleteFile)).Methods(http.MethodDelete)
}

func (api *API) uploadFile(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	// Cap the whole request body so an oversized upload dies here, never
	// reaching the blob store. The extra megabyte covers multipart framing
	// and the form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		// MaxBytesReader's error carries no distinct type before go1.19,
		// only its message tells the size cap apart from a bad body.
		if strings.Contains(err.Error(), "request body too large") {
			fail(w, http.StatusBadRequest, webcodes.MsgFileTooLarge)
		} else {
			fail(w, http.StatusBadRequest, webcodes.MsgInvalidBody)
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		fail(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	groupID := r.FormValue("groupId")
	if groupID == "" {
		fail(w, http.StatusBadRequest, "Group ID is required")
		return
	}
	if header.Size > maxUploadSize {
		fail(w, http.StatusBadRequest, webcodes.MsgFileTooLarge)
		return
	}

	group, ok := api.fetchGroup(w, r, groupID)
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}

	ctx := r.Context()
	now := api.now()
	path := fmt.Sprintf("groups/%s/files/%d_%s", groupID, now.UnixNano()/1e6, header.Filename)
	contentType := header.Header.Get("Content-Type")

	publicURL, err := api.blobs.Upload(ctx, path, contentType, file)
	if err != nil {
		log.Printf("Upload error: %v", err)
		fail(w, http.StatusInternalServerError, "File upload failed")
		return
	}

	fileDoc := collections.File{
		FileName:    header.Filename,
		FileURL:     publicURL,
		FileType:    contentType,
		FileSize:    header.Size,
		UploadedBy:  caller.UID,
		GroupID:     groupID,
		Description: r.FormValue("description"),
		UploadedAt:  now,
	}
	id, err := api.db.Add(ctx, collections.Files, fileDoc)
	if err != nil {
		internalError(w, "Upload file error", err)
		return
	}
	fileDoc.ID = id

	respond(w, http.StatusCreated, envelope{
		"success": true,
		"message": "File uploaded successfully",
		"file":    fileDoc,
	})
}

func (api *API) groupFiles(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	groupID := mux.Vars(r)["groupId"]
	group, ok := api.fetchGroup(w, r, groupID)
	if !ok {
		return
	}
	if !groupauth.CanAccessGroup(caller, group) {
		fail(w, http.StatusForbidden, webcodes.MsgAccessDenied)
		return
	}

	docs, err := api.db.Query(r.Context(), collections.Files, []storage.Filter{
		{Path: collections.GroupIDField, Op: "==", Value: groupID},
	}, &storage.Order{Path: collections.UploadedAtField, Desc: true}, 0)
	if err != nil {
		internalError(w, "Get files error", err)
		return
	}

	files := []collections.File{}
	for _, doc := range docs {
		var f collections.File
		if err := doc.DataTo(&f); err != nil {
			log.Printf("Error decoding file %s: %v", doc.ID, err)
			continue
		}
		f.ID = doc.ID
		files = append(files, f)
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"count":   len(files),
		"files":   files,
	})
}

func (api *API) deleteFile(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	fileID := mux.Vars(r)["fileId"]
	var fileDoc collections.File
	ctx := r.Context()
	err := api.db.Get(ctx, collections.Files, fileID, &fileDoc)
	if err == storage.ErrNotFound {
		fail(w, http.StatusNotFound, webcodes.MsgFileNotFound)
		return
	}
	if err != nil {
		internalError(w, "Delete file error", err)
		return
	}

	if !groupauth.CanDeleteFile(caller, &fileDoc) {
		fail(w, http.StatusForbidden, "Only file uploader can delete file")
		return
	}

	if path := storage.ObjectPath(fileDoc.FileURL); path != "" {
		if err := api.blobs.Remove(ctx, path); err != nil {
			internalError(w, "Delete file error", err)
			return
		}
	}
	if err := api.db.Delete(ctx, collections.Files, fileID); err != nil {
		internalError(w, "Delete file error", err)
		return
	}

	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "File deleted successfully",
	})
}
