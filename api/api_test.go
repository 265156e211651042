package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/auth"
	"github.com/xraph/keeper/item"
	"github.com/xraph/keeper/lists"
	"github.com/xraph/keeper/store/memory"
	"github.com/xraph/keeper/user"
)

// newTestServer registers the routes on a bare Forge router the way the
// extension does, without any net/http middleware in front.
func newTestServer(t *testing.T) (*keeper.Engine, http.Handler) {
	t.Helper()
	eng, err := keeper.NewEngine(keeper.WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	router := forge.NewRouter()
	if err := New(eng, router).RegisterRoutes(router); err != nil {
		t.Fatalf("register routes: %v", err)
	}
	return eng, router.Handler()
}

func mustUser(t *testing.T, eng *keeper.Engine, name string, admin bool) *user.User {
	t.Helper()
	email := name + "@example.com"
	password := "pw-" + name
	u, err := eng.CreateUser(context.Background(), &keeper.UserInput{
		Name:     &name,
		Email:    &email,
		Password: &password,
		IsAdmin:  &admin,
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func mustToken(t *testing.T, eng *keeper.Engine, u *user.User) string {
	t.Helper()
	sess, _, err := eng.SignIn(context.Background(), u.Email, "pw-"+u.Name)
	if err != nil {
		t.Fatal(err)
	}
	return sess.Token
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decode fails unless the body holds exactly one JSON document.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHandlerRegistersEveryRoute(t *testing.T) {
	eng, err := keeper.NewEngine(keeper.WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	h := New(eng, forge.NewRouter()).Handler()

	rec := do(t, h, http.MethodGet, "/v1/schema", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var got []map[string]any
	decode(t, rec, &got)
	if len(got) != len(eng.Registry().Lists()) {
		t.Fatalf("expected %d lists, got %d", len(eng.Registry().Lists()), len(got))
	}
	for _, l := range got {
		if _, ok := l["access"]; !ok {
			t.Fatalf("list without access decisions: %v", l)
		}
	}
}

func TestSessionTokenAuthenticatesRequests(t *testing.T) {
	eng, h := newTestServer(t)
	u := mustUser(t, eng, "ann", false)

	rec := do(t, h, http.MethodPost, "/v1/auth/signin", "", SignInRequest{Email: u.Email, Password: "pw-ann"})
	expectStatus(t, rec, http.StatusOK)
	var sess SessionResponse
	decode(t, rec, &sess)
	if sess.Token == "" || sess.User == nil || sess.User.ID != u.ID {
		t.Fatalf("unexpected session response: %+v", sess)
	}

	var me MeResponse
	rec = do(t, h, http.MethodGet, "/v1/auth/me", sess.Token, nil)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &me)
	if me.Anonymous || me.User == nil || me.User.ID != u.ID {
		t.Fatalf("bearer token: expected ann, got %+v", me)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: sess.Token})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
	me = MeResponse{}
	decode(t, rec, &me)
	if me.Anonymous {
		t.Fatal("session cookie: expected an authenticated subject")
	}

	rec = do(t, h, http.MethodGet, "/v1/auth/me", "", nil)
	expectStatus(t, rec, http.StatusOK)
	me = MeResponse{}
	decode(t, rec, &me)
	if !me.Anonymous {
		t.Fatalf("no token: expected anonymous, got %+v", me)
	}

	rec = do(t, h, http.MethodPost, "/v1/auth/signout", sess.Token, SignOutRequest{})
	expectStatus(t, rec, http.StatusNoContent)

	rec = do(t, h, http.MethodGet, "/v1/auth/me", sess.Token, nil)
	me = MeResponse{}
	decode(t, rec, &me)
	if !me.Anonymous {
		t.Fatal("expected the token to stop working after sign out")
	}
}

func TestSignInRejectsBadPassword(t *testing.T) {
	eng, h := newTestServer(t)
	u := mustUser(t, eng, "ann", false)

	rec := do(t, h, http.MethodPost, "/v1/auth/signin", "", SignInRequest{Email: u.Email, Password: "wrong"})
	expectStatus(t, rec, http.StatusUnauthorized)
	var body errorBody
	decode(t, rec, &body)
	if body.Error == "" {
		t.Fatal("expected an error message")
	}
}

func TestOwnershipOverHTTP(t *testing.T) {
	eng, h := newTestServer(t)
	u1 := mustUser(t, eng, "u1", false)
	u2 := mustUser(t, eng, "u2", false)
	admin := mustUser(t, eng, "admin", true)
	t1, t2, ta := mustToken(t, eng, u1), mustToken(t, eng, u2), mustToken(t, eng, admin)

	rec := do(t, h, http.MethodPost, "/v1/lists/Shop/items", t1,
		WriteItemRequest{Fields: map[string]any{"name": "one", "user": u1.ID.String()}})
	expectStatus(t, rec, http.StatusCreated)
	var shop item.Item
	decode(t, rec, &shop)
	if shop.OwnerID != u1.ID.String() || shop.Label != "one" {
		t.Fatalf("unexpected shop: %+v", shop)
	}
	path := "/v1/lists/Shop/items/" + shop.ID.String()

	rec = do(t, h, http.MethodGet, path, t1, nil)
	expectStatus(t, rec, http.StatusOK)

	// Records outside the owner filter are hidden.
	rec = do(t, h, http.MethodGet, path, t2, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = do(t, h, http.MethodPut, path, "", WriteItemRequest{Fields: map[string]any{"name": "x"}})
	expectStatus(t, rec, http.StatusForbidden)

	rec = do(t, h, http.MethodPut, path, t2, WriteItemRequest{Fields: map[string]any{"name": "x"}})
	expectStatus(t, rec, http.StatusForbidden)

	rec = do(t, h, http.MethodGet, "/v1/lists/Shop/items", t2, nil)
	expectStatus(t, rec, http.StatusOK)
	var page ListResponse[*item.Item]
	decode(t, rec, &page)
	if page.Total != 0 || len(page.Items) != 0 {
		t.Fatalf("u2 should see no shops, got %+v", page)
	}

	rec = do(t, h, http.MethodDelete, path, ta, nil)
	expectStatus(t, rec, http.StatusNoContent)
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, path, t1, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestUnknownListIsNotFound(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/v1/lists/Nope/items", "", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestEnforce(t *testing.T) {
	eng, h := newTestServer(t)
	u := mustUser(t, eng, "ann", false)
	token := mustToken(t, eng, u)

	tests := []struct {
		name    string
		token   string
		op      string
		want    int
		allowed bool
	}{
		{"anonymous read", "", "read", http.StatusForbidden, false},
		{"anonymous create", "", "create", http.StatusOK, true},
		{"owner filtered read", token, "read", http.StatusOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/authz/enforce", tt.token, CheckRequest{Operation: tt.op, List: lists.Shop})
			expectStatus(t, rec, tt.want)
			var resp CheckResponse
			decode(t, rec, &resp)
			if resp.Allowed != tt.allowed {
				t.Fatalf("allowed = %v, want %v", resp.Allowed, tt.allowed)
			}
		})
	}
}

func TestBatchCheckUsesTheSessionSubject(t *testing.T) {
	eng, h := newTestServer(t)
	admin := mustUser(t, eng, "admin", true)

	rec := do(t, h, http.MethodPost, "/v1/authz/batch-check", mustToken(t, eng, admin), BatchCheckRequest{
		Checks: []CheckRequest{
			{Operation: "delete", List: lists.Shop},
			{Operation: "delete", List: lists.User},
		},
	})
	expectStatus(t, rec, http.StatusOK)
	var resp BatchCheckResponse
	decode(t, rec, &resp)
	if len(resp.Results) != 2 || !resp.Results[0].Allowed || !resp.Results[1].Allowed {
		t.Fatalf("expected administrator to pass both checks, got %+v", resp.Results)
	}
}

func TestCheckLogsRequireAdministrator(t *testing.T) {
	eng, h := newTestServer(t)
	u := mustUser(t, eng, "ann", false)
	admin := mustUser(t, eng, "admin", true)

	rec := do(t, h, http.MethodGet, "/v1/check-logs", "", nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = do(t, h, http.MethodGet, "/v1/check-logs", mustToken(t, eng, u), nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = do(t, h, http.MethodGet, "/v1/check-logs", mustToken(t, eng, admin), nil)
	expectStatus(t, rec, http.StatusOK)
	var page map[string]any
	decode(t, rec, &page)
	if _, ok := page["items"]; !ok {
		t.Fatalf("expected a paged response, got %v", page)
	}
}

func TestUserRoutes(t *testing.T) {
	eng, h := newTestServer(t)
	admin := mustUser(t, eng, "admin", true)

	rec := do(t, h, http.MethodPost, "/v1/users", "", CreateUserRequest{Name: "bob", Email: "bob@example.com", Password: "pw-bob"})
	expectStatus(t, rec, http.StatusCreated)
	var bob user.User
	decode(t, rec, &bob)
	if bob.Email != "bob@example.com" {
		t.Fatalf("unexpected user: %+v", bob)
	}
	path := "/v1/users/" + bob.ID.String()

	rec = do(t, h, http.MethodGet, path, "", nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = do(t, h, http.MethodGet, path, mustToken(t, eng, &bob), nil)
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, h, http.MethodDelete, path, mustToken(t, eng, &bob), nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = do(t, h, http.MethodDelete, path, mustToken(t, eng, admin), nil)
	expectStatus(t, rec, http.StatusNoContent)
}

func TestHandlerAfterRegisterRoutes(t *testing.T) {
	eng, err := keeper.NewEngine(keeper.WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	router := forge.NewRouter()
	a := New(eng, router)
	if err := a.RegisterRoutes(router); err != nil {
		t.Fatal(err)
	}
	rec := do(t, a.Handler(), http.MethodGet, "/v1/auth/me", "", nil)
	expectStatus(t, rec, http.StatusOK)
}
