package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/go-profiles/internal/auth"
	"github.com/diewo77/go-profiles/internal/httpx"
	"github.com/diewo77/go-profiles/internal/middleware"
	"github.com/diewo77/go-profiles/internal/models"
	"github.com/diewo77/go-profiles/internal/validation"
	"github.com/diewo77/go-profiles/internal/view"
)

// AuthHandler serves the signup/login/logout forms and the home page.
type AuthHandler struct{ DB *gorm.DB }

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

func (h *AuthHandler) Register(mux *http.ServeMux) {
	anon := auth.RedirectIfAuthenticated
	mux.Handle("GET /signup", anon(http.HandlerFunc(h.signupForm)))
	mux.Handle("POST /signup", anon(http.HandlerFunc(h.signup)))
	mux.Handle("GET /login", anon(http.HandlerFunc(h.loginForm)))
	mux.Handle("POST /login", anon(http.HandlerFunc(h.login)))
	mux.HandleFunc("POST /logout", h.logout)
	mux.HandleFunc("GET /{$}", h.home)
}

// renderTemplate uses the shared view.Render to ensure layout, partials, funcs, and caching.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

// isDuplicateErr reports whether an insert/update failed on the username unique index.
// gorm only translates duplicate-key errors on some dialects, so fall back to text matching.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

func (h *AuthHandler) signupForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "signup", nil)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if v := validation.SignupPolicy(username, password); !v.Empty() {
		renderTemplate(w, r, "signup", map[string]any{"Error": "Try again", "Username": username})
		return
	}

	taken := func() {
		renderTemplate(w, r, "signup", map[string]any{
			"Error":    fmt.Sprintf("The %q username is taken", username),
			"Username": username,
		})
	}

	// Friendly pre-check; the unique index on username is what actually
	// guarantees no duplicate slips through between check and insert.
	var count int64
	if err := h.DB.Model(&models.User{}).Where("username = ?", username).Limit(1).Count(&count).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	if count > 0 {
		taken()
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_error", nil)
		return
	}
	user := models.User{Username: username, Password: string(hash)}
	if err := h.DB.Create(&user).Error; err != nil {
		if isDuplicateErr(err) {
			taken()
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	// Session is only established after a successful insert.
	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) loginForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "login", nil)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		renderTemplate(w, r, "login", map[string]any{"Error": "Indicate a username and a password"})
		return
	}

	// Unknown user and wrong password share one message on purpose.
	var user models.User
	if err := h.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
			return
		}
		renderTemplate(w, r, "login", map[string]any{"Error": "Username or password are incorrect", "Username": username})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		renderTemplate(w, r, "login", map[string]any{"Error": "Username or password are incorrect", "Username": username})
		return
	}

	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// home renders the index with the current user when the session resolves to an
// existing record, anonymous variant otherwise.
func (h *AuthHandler) home(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if msg, ok := middleware.ConsumeFlash(w, r); ok {
		data["Flash"] = msg
	}
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		var user models.User
		if err := h.DB.First(&user, uid).Error; err == nil {
			data["User"] = user
		} else {
			data["IsLoggedIn"] = false
		}
	}
	renderTemplate(w, r, "index", data)
}
