package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/go-profiles/internal/auth"
	"github.com/diewo77/go-profiles/internal/httpx"
	"github.com/diewo77/go-profiles/internal/middleware"
	"github.com/diewo77/go-profiles/internal/models"
)

// ProfileHandler serves profile viewing and editing. The edit form and the
// update both require the session user to own the target record; viewing only
// requires a session.
type ProfileHandler struct{ DB *gorm.DB }

func NewProfileHandler(db *gorm.DB) *ProfileHandler { return &ProfileHandler{DB: db} }

func (h *ProfileHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /profile/{id}", auth.RequireAuth(http.HandlerFunc(h.show)))
	mux.Handle("GET /profile/{id}/edit", auth.RequireAuth(http.HandlerFunc(h.edit)))
	mux.Handle("POST /profile/{id}", auth.RequireAuth(http.HandlerFunc(h.update)))
	mux.Handle("POST /profile/password", auth.RequireAuth(http.HandlerFunc(h.changePassword)))
}

func profileID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *ProfileHandler) load(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := profileID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		} else {
			httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		}
		return nil, false
	}
	return &user, true
}

func (h *ProfileHandler) show(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	data := map[string]any{"User": user, "IsOwner": uid == user.ID}
	if msg, ok := middleware.ConsumeFlash(w, r); ok {
		data["Flash"] = msg
	}
	renderTemplate(w, r, "profiles/show", data)
}

func (h *ProfileHandler) edit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	if uid, _ := auth.UserIDFromContext(r.Context()); uid != user.ID {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	renderTemplate(w, r, "profiles/edit", map[string]any{"User": user})
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	if uid, _ := auth.UserIDFromContext(r.Context()); uid != user.ID {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	updates := map[string]any{
		"username":  username,
		"name":      strings.TrimSpace(r.FormValue("name")),
		"email":     strings.TrimSpace(r.FormValue("email")),
		"summary":   strings.TrimSpace(r.FormValue("summary")),
		"company":   strings.TrimSpace(r.FormValue("company")),
		"job_title": strings.TrimSpace(r.FormValue("jobTitle")),
	}
	if username == "" {
		renderTemplate(w, r, "profiles/edit", map[string]any{"User": user, "Error": "Username is required"})
		return
	}
	if err := h.DB.Model(user).Updates(updates).Error; err != nil {
		if isDuplicateErr(err) {
			renderTemplate(w, r, "profiles/edit", map[string]any{
				"User":  user,
				"Error": fmt.Sprintf("The %q username is taken", username),
			})
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	middleware.Flash(w, "Profile updated")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// changePassword handles POST /profile/password for the session user.
func (h *ProfileHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	back := "/profile/" + strconv.FormatUint(uint64(uid), 10)
	if err := r.ParseForm(); err != nil {
		middleware.Flash(w, "Invalid form submission")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	current := r.FormValue("current")
	newPass := r.FormValue("new")
	confirm := r.FormValue("confirm")

	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		middleware.Flash(w, "User not found")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		middleware.Flash(w, "Current password is incorrect")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if len(newPass) < 8 || newPass != confirm {
		middleware.Flash(w, "New passwords must match and be at least 8 characters")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPass), bcrypt.DefaultCost)
	if err != nil {
		middleware.Flash(w, "Could not save password")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if err := h.DB.Model(&user).Update("password", string(hash)).Error; err != nil {
		middleware.Flash(w, "Could not save password")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	middleware.Flash(w, "Password updated")
	http.Redirect(w, r, back, http.StatusSeeOther)
}
