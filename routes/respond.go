package routes

import (
	"encoding/json"
	"net/http"

	log "groupifyserver/cloudlog"
	"groupifyserver/webcodes"
)

// envelope is the loose response body shape; every success body carries
// success=true, every failure success=false plus error.
type envelope map[string]interface{}

const maxJSONBody = 1 << 20 // request bodies other than uploads stay small

func respond(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func fail(w http.ResponseWriter, status int, msg string) {
	respond(w, status, envelope{"success": false, "error": msg})
}

// internalError logs the underlying cause server side and returns the generic
// message to the caller.
func internalError(w http.ResponseWriter, context string, err error) {
	log.Printf("%s: %v", context, err)
	fail(w, http.StatusInternalServerError, webcodes.MsgInternal)
}

// decodeJSON strictly decodes the request body into dst, rejecting unknown
// fields. On failure it writes the 400 itself and reports false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, webcodes.MsgInvalidBody)
		return false
	}
	return true
}
