package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xraph/forge"

	"github.com/xraph/keeper"
	"github.com/xraph/keeper/access"
	"github.com/xraph/keeper/auth"
	"github.com/xraph/keeper/lists"
	"github.com/xraph/keeper/store/memory"
	"github.com/xraph/keeper/user"
)

func newTestEngine(t *testing.T) *keeper.Engine {
	t.Helper()
	eng, err := keeper.NewEngine(keeper.WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func mustSession(t *testing.T, eng *keeper.Engine, name string, admin bool) (*user.User, string) {
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
	sess, _, err := eng.SignIn(context.Background(), email, password)
	if err != nil {
		t.Fatal(err)
	}
	return u, sess.Token
}

// whoami reports the subject and token the handler sees.
func whoami(ctx forge.Context) error {
	out := map[string]string{"token": auth.TokenFrom(ctx.Context())}
	if s := keeper.SubjectFrom(ctx.Context()); s != nil {
		out["subject"] = s.ID
	}
	return ctx.JSON(http.StatusOK, out)
}

func newTestRouter(t *testing.T, eng *keeper.Engine) http.Handler {
	t.Helper()
	r := forge.NewRouter()
	r.Use(Session(eng))
	routes := []struct {
		path string
		mw   forge.Middleware
	}{
		{"/whoami", nil},
		{"/admin", RequireAdmin(eng)},
		{"/shops", RequireList(eng, lists.Shop, access.OpRead)},
		{"/lists/:list", RequirePathList(eng, "list", access.OpDelete)},
	}
	for _, rt := range routes {
		var opts []forge.RouteOption
		if rt.mw != nil {
			opts = append(opts, forge.WithMiddleware(rt.mw))
		}
		if err := r.GET(rt.path, whoami, opts...); err != nil {
			t.Fatalf("register %s: %v", rt.path, err)
		}
	}
	return r.Handler()
}

func get(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionAttachesSubjectAndToken(t *testing.T) {
	eng := newTestEngine(t)
	u, token := mustSession(t, eng, "ann", false)
	h := newTestRouter(t, eng)

	rec := get(h, "/whoami", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["subject"] != u.ID.String() || got["token"] != token {
		t.Fatalf("unexpected identity: %v", got)
	}

	got = nil
	rec = get(h, "/whoami", "not-a-session")
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["subject"] != "" {
		t.Fatalf("unknown token should stay anonymous, got %v", got)
	}
}

func TestRequireMiddleware(t *testing.T) {
	eng := newTestEngine(t)
	_, userToken := mustSession(t, eng, "ann", false)
	_, adminToken := mustSession(t, eng, "admin", true)
	h := newTestRouter(t, eng)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"admin route anonymous", "/admin", "", http.StatusForbidden},
		{"admin route user", "/admin", userToken, http.StatusForbidden},
		{"admin route admin", "/admin", adminToken, http.StatusOK},
		{"list denied anonymous", "/shops", "", http.StatusForbidden},
		{"list filtered for user", "/shops", userToken, http.StatusOK},
		{"path list denied anonymous", "/lists/Shop", "", http.StatusForbidden},
		{"path list user record", "/lists/User", userToken, http.StatusForbidden},
		{"path list admin", "/lists/User", adminToken, http.StatusOK},
		{"path list unknown passes", "/lists/Nope", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, tt.path, tt.token)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusForbidden {
				var body map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
					t.Fatalf("expected a JSON error body, got %q", rec.Body.String())
				}
			}
		})
	}
}

func TestSubjectFallsBackToForgeUserID(t *testing.T) {
	eng := newTestEngine(t)
	u, _ := mustSession(t, eng, "ann", true)

	r := forge.NewRouter()
	var got *access.Subject
	if err := r.GET("/", func(ctx forge.Context) error {
		got = Subject(eng, ctx)
		return ctx.NoContent(http.StatusNoContent)
	}); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(forge.WithUserID(req.Context(), u.ID.String()))
	r.Handler().ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != u.ID.String() || !got.Administrator {
		t.Fatalf("expected the stored user as subject, got %+v", got)
	}
}
