package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/diewo77/go-profiles/internal/models"
)

func TestProfileShowRequiresSession(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	seedUser(t, db, "alice", "Password1")

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile/1", nil))

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if strings.Contains(rr.Body.String(), "alice") {
		t.Fatalf("profile data leaked to anonymous caller")
	}
}

func TestProfileShowRendersRecord(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	u := seedUser(t, db, "alice", "Password1")
	if err := db.Model(&u).Updates(map[string]any{"name": "Alice A.", "company": "Acme"}).Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/profile/1", nil)
	req.AddCookie(sessionCookieFor(t, u.ID))
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"alice", "Alice A.", "Acme"} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in body: %s", want, body)
		}
	}
}

func TestProfileShowUnknownID(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	u := seedUser(t, db, "alice", "Password1")

	req := httptest.NewRequest(http.MethodGet, "/profile/999", nil)
	req.AddCookie(sessionCookieFor(t, u.ID))
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestProfileEditRequiresOwnership(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	alice := seedUser(t, db, "alice", "Password1")
	bob := seedUser(t, db, "bob", "Password1")

	// Anonymous: redirected before any data access.
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profile/1/edit", nil))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("anonymous edit: expected 303 got %d", rr.Code)
	}

	// Non-owner: forbidden.
	req := httptest.NewRequest(http.MethodGet, "/profile/1/edit", nil)
	req.AddCookie(sessionCookieFor(t, bob.ID))
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-owner edit: expected 403 got %d", rr.Code)
	}

	// Owner: form renders.
	req = httptest.NewRequest(http.MethodGet, "/profile/1/edit", nil)
	req.AddCookie(sessionCookieFor(t, alice.ID))
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Edit profile") {
		t.Fatalf("owner edit: expected form got %d %s", rr.Code, rr.Body.String())
	}
}

func TestProfileUpdateByOwner(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	u := seedUser(t, db, "alice", "Password1")

	form := url.Values{
		"username": {"alice"},
		"name":     {"Bob"},
		"email":    {"bob@example.com"},
		"summary":  {"hello"},
		"company":  {"Acme"},
		"jobTitle": {"Engineer"},
	}
	req := postForm("/profile/1", form)
	req.AddCookie(sessionCookieFor(t, u.ID))
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q body=%s", rr.Code, rr.Header().Get("Location"), rr.Body.String())
	}
	var updated models.User
	if err := db.First(&updated, u.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if updated.Name != "Bob" || updated.Email != "bob@example.com" || updated.JobTitle != "Engineer" {
		t.Fatalf("fields not updated: %+v", updated)
	}
}

func TestProfileUpdateNonOwnerForbidden(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	seedUser(t, db, "alice", "Password1")
	bob := seedUser(t, db, "bob", "Password1")

	form := url.Values{"username": {"alice"}, "name": {"Mallory"}}
	req := postForm("/profile/1", form)
	req.AddCookie(sessionCookieFor(t, bob.ID))
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
	var alice models.User
	if err := db.First(&alice, 1).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if alice.Name == "Mallory" {
		t.Fatalf("record mutated by non-owner")
	}
}

func TestProfileUpdateUsernameConflict(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	seedUser(t, db, "alice", "Password1")
	bob := seedUser(t, db, "bob", "Password1")

	form := url.Values{"username": {"alice"}}
	req := postForm("/profile/2", form)
	req.AddCookie(sessionCookieFor(t, bob.ID))
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "username is taken") {
		t.Fatalf("expected taken message, got %d %s", rr.Code, rr.Body.String())
	}
	var updated models.User
	if err := db.First(&updated, bob.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if updated.Username != "bob" {
		t.Fatalf("username changed despite conflict: %q", updated.Username)
	}
}

func TestPasswordChangeSuccess(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	u := seedUser(t, db, "alice", "OldPass123")

	form := url.Values{"current": {"OldPass123"}, "new": {"NewPass456"}, "confirm": {"NewPass456"}}
	req := postForm("/profile/password", form)
	req.AddCookie(sessionCookieFor(t, u.ID))
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect got %d", rr.Code)
	}
	var updated models.User
	if err := db.First(&updated, u.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("NewPass456")) != nil {
		t.Fatalf("password not updated")
	}
}

func TestPasswordChangeTooLongForHash(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	u := seedUser(t, db, "alice", "OldPass123")

	// bcrypt refuses inputs longer than 72 bytes; the handler must keep the old hash.
	long := strings.Repeat("A", 80)
	form := url.Values{"current": {"OldPass123"}, "new": {long}, "confirm": {long}}
	req := postForm("/profile/password", form)
	req.AddCookie(sessionCookieFor(t, u.ID))
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect got %d", rr.Code)
	}
	var updated models.User
	if err := db.First(&updated, u.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("OldPass123")) != nil {
		t.Fatalf("stored hash changed despite hash failure")
	}
}

func TestPasswordChangeWrongCurrent(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(db)
	u := seedUser(t, db, "alice", "OldPass123")

	form := url.Values{"current": {"WrongPass"}, "new": {"NewPass456"}, "confirm": {"NewPass456"}}
	req := postForm("/profile/password", form)
	req.AddCookie(sessionCookieFor(t, u.ID))
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect got %d", rr.Code)
	}
	var updated models.User
	if err := db.First(&updated, u.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("OldPass123")) != nil {
		t.Fatalf("original password changed unexpectedly")
	}
}
