package routes

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"groupifyserver/collections"
	"groupifyserver/groupauth"
	"groupifyserver/storage"
	"groupifyserver/webcodes"
)

func (api *API) registerAuth(r *mux.Router) {
	r.HandleFunc("/signup", api.signup).Methods(http.MethodPost)
	r.HandleFunc("/verify", api.guard.Handle(api.verify)).Methods(http.MethodGet)
	r.HandleFunc("/complete-onboarding", api.guard.Handle(api.completeOnboarding)).Methods(http.MethodPost)
	r.HandleFunc("/update-email", api.guard.Handle(api.updateEmail)).Methods(http.MethodPut)
	r.HandleFunc("/delete-account", api.guard.Handle(api.deleteAccount)).Methods(http.MethodDelete)
}

type signupRequest struct {
	FullName  string `json:"fullName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	School    string `json:"school" validate:"required"`
	Course    string `json:"course" validate:"required"`
	YearLevel string `json:"yearLevel" validate:"required"`
	Section   string `json:"section" validate:"required"`
}

// signupMessage maps the first validation failure to the message the client
// shows on the signup form.
func signupMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return webcodes.MsgInvalidBody
	}
	switch first := errs[0]; {
	case first.Tag() == "required":
		return "All fields are required"
	case first.Field() == "Email":
		return "Invalid email format"
	case first.Field() == "Password":
		return "Password must be at least 8 characters"
	default:
		return webcodes.MsgInvalidBody
	}
}

// signup is the only /api/auth route without the guard: the caller has no
// credential yet.
func (api *API) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := api.validate.Struct(req); err != nil {
		fail(w, http.StatusBadRequest, signupMessage(err))
		return
	}
	ctx := r.Context()
	email := strings.ToLower(req.Email)

	uid, err := api.accounts.CreateUser(ctx, email, req.Password, req.FullName)
	if err == storage.ErrEmailExists {
		fail(w, http.StatusConflict, webcodes.MsgEmailExists)
		return
	}
	if err != nil {
		internalError(w, "Signup error", err)
		return
	}

	now := api.now()
	user := collections.User{
		UID:               uid,
		FullName:          req.FullName,
		Email:             email,
		School:            req.School,
		Course:            req.Course,
		YearLevel:         req.YearLevel,
		Section:           req.Section,
		HasSeenOnboarding: true, // they just completed onboarding
		GroupIDs:          []string{},
		CreatedAt:         now,
		LastLogin:         now,
	}
	if err := api.db.Set(ctx, collections.Users, uid, user); err != nil {
		internalError(w, "Signup error", err)
		return
	}

	customToken, err := api.accounts.CustomToken(ctx, uid)
	if err != nil {
		internalError(w, "Signup error", err)
		return
	}

	respond(w, http.StatusCreated, envelope{
		"success":     true,
		"message":     "Account created successfully",
		"customToken": customToken,
		"user":        user,
		"redirectTo":  "home",
	})
}

func (api *API) verify(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	ctx := r.Context()
	var user collections.User
	err := api.db.Get(ctx, collections.Users, caller.UID, &user)
	if err == storage.ErrNotFound {
		respond(w, http.StatusNotFound, envelope{
			"success":      false,
			"error":        webcodes.MsgUserNotFound,
			"requiresAuth": true,
		})
		return
	}
	if err != nil {
		internalError(w, "Verify error", err)
		return
	}

	if err := api.db.Update(ctx, collections.Users, caller.UID, []storage.Update{
		{Path: collections.LastLoginField, Value: api.now()},
	}); err != nil {
		internalError(w, "Verify error", err)
		return
	}

	redirectTo := "onboarding"
	if user.HasSeenOnboarding {
		redirectTo = "home"
	}
	respond(w, http.StatusOK, envelope{
		"success":    true,
		"message":    "Token valid",
		"user":       user,
		"redirectTo": redirectTo,
	})
}

func (api *API) completeOnboarding(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	err := api.db.Update(r.Context(), collections.Users, caller.UID, []storage.Update{
		{Path: collections.OnboardingField, Value: true},
	})
	if err == storage.ErrNotFound {
		fail(w, http.StatusNotFound, webcodes.MsgUserNotFound)
		return
	}
	if err != nil {
		internalError(w, "Onboarding error", err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Onboarding completed",
		"user": envelope{
			"uid":               caller.UID,
			"hasSeenOnboarding": true,
		},
	})
}

func (api *API) updateEmail(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	var req struct {
		NewEmail string `json:"newEmail"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.NewEmail == "" {
		fail(w, http.StatusBadRequest, "New email is required")
		return
	}
	if err := api.validate.Var(req.NewEmail, "email"); err != nil {
		fail(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	ctx := r.Context()
	email := strings.ToLower(req.NewEmail)
	err := api.accounts.UpdateEmail(ctx, caller.UID, email)
	if err == storage.ErrEmailExists {
		fail(w, http.StatusConflict, webcodes.MsgEmailExists)
		return
	}
	if err != nil {
		internalError(w, "Update email error", err)
		return
	}
	if err := api.db.Update(ctx, collections.Users, caller.UID, []storage.Update{
		{Path: collections.EmailField, Value: email},
	}); err != nil {
		internalError(w, "Update email error", err)
		return
	}

	respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "Email updated successfully",
		"email":   email,
	})
}

func (api *API) deleteAccount(w http.ResponseWriter, r *http.Request, caller groupauth.Caller) {
	ctx := r.Context()
	if err := api.db.Delete(ctx, collections.Users, caller.UID); err != nil {
		internalError(w, "Delete account error", err)
		return
	}
	if err := api.accounts.DeleteUser(ctx, caller.UID); err != nil {
		internalError(w, "Delete account error", err)
		return
	}
	respond(w, http.StatusOK, envelope{
		"success":    true,
		"message":    "Account deleted successfully",
		"redirectTo": "signin",
	})
}
