package invitations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/shareack/shareack/internal/components/identity"
	"github.com/shareack/shareack/internal/components/items"
	"github.com/shareack/shareack/internal/components/sharing"
)

// fixture wires the invitation core behind a chi router. Authentication is
// stubbed by a middleware that resolves the X-User-ID header.
type fixture struct {
	router *chi.Mux
	users  *identity.MemoryUserRepo
	shares *sharing.MemoryShareStore
	inv    *sharing.MemoryInvitationRepo
	items  *items.MemoryStore

	owner   *identity.User
	invitee *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := identity.NewMemoryUserRepo()
	shares := sharing.NewMemoryShareStore()
	inv := sharing.NewMemoryInvitationRepo(users)
	itemStore := items.NewMemoryStore()
	tx := sharing.NewMemoryTransactor(inv, itemStore)

	engine := sharing.NewAcceptanceEngine(inv, shares, itemStore, tx)
	manager := sharing.NewInvitationManager(inv, shares, users, engine)
	deleter := sharing.NewCascadeDeleter(inv, tx)
	policy := sharing.NewAccessPolicy(shares)

	h := NewHandler(policy, inv, shares, manager, engine, deleter, nil)

	f := &fixture{users: users, shares: shares, inv: inv, items: itemStore}

	f.owner = f.addUser(t, "owner", "owner@example.com")
	f.invitee = f.addUser(t, "invitee", "invitee@example.com")

	itemStore.PutItem(&items.Item{ID: "folder-1", OwnerID: f.owner.ID, Folder: true, Name: "Notes"})
	itemStore.PutItem(&items.Item{ID: "doc-1", OwnerID: f.owner.ID, ParentID: "folder-1", Name: "a.md"})
	shares.Put(&sharing.Share{ID: "share-1", OwnerID: f.owner.ID, ItemID: "folder-1", Kind: sharing.KindRootFolder})

	r := chi.NewRouter()
	r.Use(f.stubAuth)
	r.Get("/api/invitations", h.HandleListMine)
	r.Route("/api/shares/{shareID}/invitations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleListForShare)
		r.Delete("/", h.HandleDeleteAll)
		r.Patch("/{userID}", h.HandleSetStatus)
	})
	f.router = r

	return f
}

func (f *fixture) addUser(t *testing.T, username, email string) *identity.User {
	t.Helper()

	user := &identity.User{Username: username, Email: email}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func (f *fixture) stubAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-User-ID"); id != "" {
			if user, err := f.users.Get(r.Context(), id); err == nil {
				r = r.WithContext(identity.WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fixture) do(t *testing.T, as *identity.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if as != nil {
		req.Header.Set("X-User-ID", as.ID)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) InvitationView {
	t.Helper()

	var view InvitationView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []InvitationView {
	t.Helper()

	var resp ListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return resp.Invitations
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, f.owner, http.MethodPost, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	view := decodeView(t, rec)
	if view.UserID != f.invitee.ID {
		t.Errorf("UserID = %s, want %s", view.UserID, f.invitee.ID)
	}
	if view.Status != sharing.StatusWaiting {
		t.Errorf("Status = %q, want %q", view.Status, sharing.StatusWaiting)
	}
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		as   *identity.User
		path string
		body string
		want int
	}{
		{"no session", nil, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`, http.StatusUnauthorized},
		{"non-owner", f.invitee, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`, http.StatusForbidden},
		{"missing share", f.owner, "/api/shares/missing/invitations", `{"email":"invitee@example.com"}`, http.StatusNotFound},
		{"unknown email", f.owner, "/api/shares/share-1/invitations", `{"email":"nobody@example.com"}`, http.StatusNotFound},
		{"empty email", f.owner, "/api/shares/share-1/invitations", `{}`, http.StatusBadRequest},
		{"bad body", f.owner, "/api/shares/share-1/invitations", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := f.do(t, tc.as, http.MethodPost, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestSetStatus_OnlyInvitee(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, f.owner, http.MethodPost, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite: %d: %s", rec.Code, rec.Body)
	}
	path := "/api/shares/share-1/invitations/" + f.invitee.ID

	rec = f.do(t, f.owner, http.MethodPatch, path, `{"status":"accepted"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("owner patch = %d, want 403", rec.Code)
	}

	rec = f.do(t, f.invitee, http.MethodPatch, path, `{"status":"accepted"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("invitee patch = %d, want 200: %s", rec.Code, rec.Body)
	}
	if view := decodeView(t, rec); view.Status != sharing.StatusAccepted {
		t.Errorf("Status = %q, want %q", view.Status, sharing.StatusAccepted)
	}

	grants := f.items.GrantsFor(f.invitee.ID)
	if len(grants) != 2 {
		t.Errorf("grants = %v, want folder and document", grants)
	}
}

func TestSetStatus_Validation(t *testing.T) {
	f := newFixture(t)

	path := "/api/shares/share-1/invitations/" + f.invitee.ID
	rec := f.do(t, f.invitee, http.MethodPatch, path, `{"status":"maybe"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status = %d, want 400", rec.Code)
	}

	rec = f.do(t, f.invitee, http.MethodPatch, path, `{"status":"accepted"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("no invitation = %d, want 404", rec.Code)
	}
}

func TestListForShare_OwnerOnly(t *testing.T) {
	f := newFixture(t)

	f.do(t, f.owner, http.MethodPost, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`)

	rec := f.do(t, f.invitee, http.MethodGet, "/api/shares/share-1/invitations", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner list = %d, want 403", rec.Code)
	}

	rec = f.do(t, f.owner, http.MethodGet, "/api/shares/share-1/invitations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner list = %d, want 200", rec.Code)
	}
	if rows := decodeList(t, rec); len(rows) != 1 {
		t.Errorf("rows = %d, want 1", len(rows))
	}
}

func TestListMine(t *testing.T) {
	f := newFixture(t)

	f.do(t, f.owner, http.MethodPost, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`)

	rec := f.do(t, f.invitee, http.MethodGet, "/api/invitations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	rows := decodeList(t, rec)
	if len(rows) != 1 || rows[0].UserID != f.invitee.ID {
		t.Errorf("rows = %v, want one invitation for invitee", rows)
	}

	// The owner holds no invitations.
	rec = f.do(t, f.owner, http.MethodGet, "/api/invitations", "")
	if rows := decodeList(t, rec); len(rows) != 0 {
		t.Errorf("owner rows = %v, want none", rows)
	}
}

func TestDeleteAll(t *testing.T) {
	f := newFixture(t)

	f.do(t, f.owner, http.MethodPost, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`)

	rec := f.do(t, f.invitee, http.MethodDelete, "/api/shares/share-1/invitations", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner delete = %d, want 403", rec.Code)
	}

	rec = f.do(t, f.owner, http.MethodDelete, "/api/shares/share-1/invitations", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete = %d, want 204", rec.Code)
	}

	rec = f.do(t, f.owner, http.MethodGet, "/api/shares/share-1/invitations", "")
	if rows := decodeList(t, rec); len(rows) != 0 {
		t.Errorf("rows after delete = %v, want none", rows)
	}
}

// Full lifecycle: invite, decline, re-invite keeps the row, accept grants
// access, cascade delete clears the table.
func TestInvitationLifecycle(t *testing.T) {
	f := newFixture(t)
	path := "/api/shares/share-1/invitations/" + f.invitee.ID

	rec := f.do(t, f.owner, http.MethodPost, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invite: %d", rec.Code)
	}
	created := decodeView(t, rec)

	rec = f.do(t, f.invitee, http.MethodPatch, path, `{"status":"rejected"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: %d", rec.Code)
	}
	if grants := f.items.GrantsFor(f.invitee.ID); grants != nil {
		t.Errorf("grants after rejection = %v, want none", grants)
	}

	// Re-inviting reuses the existing row.
	rec = f.do(t, f.owner, http.MethodPost, "/api/shares/share-1/invitations", `{"email":"invitee@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("re-invite: %d", rec.Code)
	}
	if again := decodeView(t, rec); again.ID != created.ID {
		t.Errorf("re-invite row = %s, want %s", again.ID, created.ID)
	}

	rec = f.do(t, f.invitee, http.MethodPatch, path, `{"status":"accepted"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: %d", rec.Code)
	}
	if grants := f.items.GrantsFor(f.invitee.ID); len(grants) != 2 {
		t.Errorf("grants after accept = %v, want 2", grants)
	}

	rec = f.do(t, f.owner, http.MethodDelete, "/api/shares/share-1/invitations", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cascade delete: %d", rec.Code)
	}
	rec = f.do(t, f.invitee, http.MethodGet, "/api/invitations", "")
	if rows := decodeList(t, rec); len(rows) != 0 {
		t.Errorf("rows after cascade = %v, want none", rows)
	}
}
