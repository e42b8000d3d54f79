package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gubbhockey/clubhouse/auth"
	"github.com/gubbhockey/clubhouse/internal/errors"
	"github.com/gubbhockey/clubhouse/players"
	"github.com/gubbhockey/clubhouse/server"
	"github.com/gubbhockey/clubhouse/sessions"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

type whoAmIBody struct {
	Identity string          `json:"identity"`
	Player   *players.Player `json:"player"`
}

func TestNew_RequiresDependencies(t *testing.T) {
	f := setupServerFixture(t)

	_, err := server.New(testConfig(t), nil, f.players)
	require.True(t, errors.Is(err, errors.ErrConfiguration))

	_, err = server.New(testConfig(t), f.service, nil)
	require.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestRoutes(t *testing.T) {
	f := setupServerFixture(t)

	require.ElementsMatch(t, []string{
		"GET /{$}",
		"GET /login",
		"GET /auth",
		"POST /logout",
		"GET /api/whoami",
		"GET /api/me",
		"PUT /api/me/goalkeeper",
		"GET /api/admin/players",
		"POST /api/admin/players/{id}/promote",
		"POST /api/admin/players/{id}/demote",
		"GET /healthz",
	}, f.server.Routes())
}

func TestLogin_RedirectsToProviderWithPKCE(t *testing.T) {
	f := setupServerFixture(t)

	w := f.do(t, http.MethodGet, "/login", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "idp.example.com", location.Host)
	require.Equal(t, "S256", location.Query().Get("code_challenge_method"))
	require.NotEmpty(t, location.Query().Get("code_challenge"))
	require.NotEmpty(t, location.Query().Get("state"))
	require.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
}

func TestCallback(t *testing.T) {
	t.Run("success sets session cookie", func(t *testing.T) {
		f := setupServerFixture(t)
		cookie := f.login(t, playerCode)

		require.Equal(t, "/", cookie.Path)
		require.True(t, cookie.HttpOnly)
		require.True(t, cookie.Secure)
		require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		require.Equal(t, 86400, cookie.MaxAge)

		w := f.do(t, http.MethodGet, "/api/me", nil, cookie)
		require.Equal(t, http.StatusOK, w.Code)
		me := decode[players.Player](t, w)
		require.Equal(t, "sam.keeper@example.com", me.Email)
		require.Equal(t, players.AccessGroupUser, me.Group())
	})

	t.Run("expired state shows retry page", func(t *testing.T) {
		f := setupServerFixture(t)
		state := f.startLogin(t)
		f.now = f.now.Add(16 * time.Minute)

		w := f.do(t, http.MethodGet, "/auth?"+url.Values{"state": {state}, "code": {playerCode}}.Encode(), nil, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Header().Get("Content-Type"), "text/html")
		require.Contains(t, w.Body.String(), `href="/login"`)
		require.Empty(t, w.Result().Cookies())
		require.Equal(t, 1, f.players.Count(), "only the seeded admin exists")
	})

	t.Run("missing state", func(t *testing.T) {
		f := setupServerFixture(t)

		w := f.do(t, http.MethodGet, "/auth?code="+playerCode, nil, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), `href="/login"`)
	})

	t.Run("provider error parameter", func(t *testing.T) {
		f := setupServerFixture(t)
		state := f.startLogin(t)

		w := f.do(t, http.MethodGet, "/auth?"+url.Values{"state": {state}, "error": {"access_denied"}}.Encode(), nil, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "did not authorize")
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := setupServerFixture(t)
		f.provider.userInfoErr = errors.Wrapf(errors.ErrUpstream, "userinfo returned 503")
		state := f.startLogin(t)

		w := f.do(t, http.MethodGet, "/auth?"+url.Values{"state": {state}, "code": {playerCode}}.Encode(), nil, nil)
		require.Equal(t, http.StatusBadGateway, w.Code)
		require.NotContains(t, w.Body.String(), "503")
	})

	t.Run("same player on second login", func(t *testing.T) {
		f := setupServerFixture(t)
		first := decode[players.Player](t, f.do(t, http.MethodGet, "/api/me", nil, f.login(t, playerCode)))
		second := decode[players.Player](t, f.do(t, http.MethodGet, "/api/me", nil, f.login(t, playerCode)))
		require.Equal(t, first.ID, second.ID)
	})
}

func TestLogout(t *testing.T) {
	f := setupServerFixture(t)
	cookie := f.login(t, playerCode)

	w := f.do(t, http.MethodPost, "/logout", nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, logoutURL, w.Header().Get("Location"))
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	cleared := sessionCookie(t, w)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	w = f.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RejectsGet(t *testing.T) {
	f := setupServerFixture(t)
	cookie := f.login(t, playerCode)

	w := f.do(t, http.MethodGet, "/logout", nil, cookie)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Contains(t, w.Header().Get("Allow"), http.MethodPost)
	require.Empty(t, w.Result().Cookies())

	w = f.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogout_WithoutUsableCookie(t *testing.T) {
	f := setupServerFixture(t)

	for name, cookie := range map[string]*http.Cookie{
		"no cookie": nil,
		"garbage":   {Name: auth.SessionCookieName, Value: "not-a-session"},
	} {
		t.Run(name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/logout", nil, cookie)
			require.Equal(t, http.StatusFound, w.Code)
			require.Equal(t, logoutURL, w.Header().Get("Location"))
			require.Negative(t, sessionCookie(t, w).MaxAge)
		})
	}
}

func TestLogout_StoreFailureKeepsSession(t *testing.T) {
	f := setupServerFixture(t, wrapSessions(func(repo sessions.Repo) sessions.Repo {
		return undeletableSessions{repo}
	}))
	cookie := f.login(t, playerCode)

	w := f.do(t, http.MethodPost, "/logout", nil, cookie)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "Logout failed")
	require.Contains(t, w.Body.String(), `href="/"`)
	require.Empty(t, w.Result().Cookies())

	w = f.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRoutes_AreNotCached(t *testing.T) {
	f := setupServerFixture(t)

	w := f.do(t, http.MethodGet, "/login", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	state := f.startLogin(t)
	w = f.do(t, http.MethodGet, "/auth?"+url.Values{"state": {state}, "code": {playerCode}}.Encode(), nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = f.do(t, http.MethodGet, "/auth?state=unknown&code="+playerCode, nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestWhoAmI(t *testing.T) {
	f := setupServerFixture(t)

	t.Run("anonymous", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/whoami", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		body := decode[whoAmIBody](t, w)
		require.Equal(t, "anonymous", body.Identity)
		require.Nil(t, body.Player)
	})

	t.Run("malformed cookie is anonymous", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/whoami", nil, &http.Cookie{Name: auth.SessionCookieName, Value: "abc"})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "anonymous", decode[whoAmIBody](t, w).Identity)
	})

	t.Run("player", func(t *testing.T) {
		body := decode[whoAmIBody](t, f.do(t, http.MethodGet, "/api/whoami", nil, f.login(t, playerCode)))
		require.Equal(t, "player", body.Identity)
		require.Equal(t, "sam.keeper@example.com", body.Player.Email)
	})

	t.Run("admin", func(t *testing.T) {
		body := decode[whoAmIBody](t, f.do(t, http.MethodGet, "/api/whoami", nil, f.login(t, adminCode)))
		require.Equal(t, "admin", body.Identity)
	})

	t.Run("expired session", func(t *testing.T) {
		cookie := f.login(t, playerCode)
		f.now = f.now.Add(24*time.Hour + time.Second)
		defer func() { f.now = baseTime }()

		body := decode[whoAmIBody](t, f.do(t, http.MethodGet, "/api/whoami", nil, cookie))
		require.Equal(t, "anonymous", body.Identity)
	})
}

func TestStoreFailures(t *testing.T) {
	f := setupServerFixture(t, withSessions(brokenSessions{}))
	cookie, err := f.service.Cookies().Build(uuid.New(), f.now)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/whoami", nil, cookie)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "server_error", decode[errorBody](t, w).Error)

	w = f.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "persistence")
}

func TestMe_Unauthorized(t *testing.T) {
	f := setupServerFixture(t)

	w := f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[errorBody](t, w)
	require.Equal(t, "unauthorized", body.Error)
	require.Equal(t, "Not logged in", body.Description)

	w = f.do(t, http.MethodGet, "/api/me", nil, &http.Cookie{Name: auth.SessionCookieName, Value: uuid.NewString()})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetGoalkeeper(t *testing.T) {
	f := setupServerFixture(t)
	cookie := f.login(t, playerCode)

	w := f.do(t, http.MethodPut, "/api/me/goalkeeper", jsonBody(`{"is_goalkeeper":true}`), cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decode[players.Player](t, w).IsGoalkeeper)

	me := decode[players.Player](t, f.do(t, http.MethodGet, "/api/me", nil, cookie))
	require.True(t, me.IsGoalkeeper)

	for _, body := range []string{``, `{}`, `{"is_goalkeeper":"yes"}`, `not json`} {
		w = f.do(t, http.MethodPut, "/api/me/goalkeeper", jsonBody(body), cookie)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w = f.do(t, http.MethodPut, "/api/me/goalkeeper", jsonBody(`{"is_goalkeeper":false}`), nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutes_RejectNonAdmins(t *testing.T) {
	f := setupServerFixture(t)
	playerCookie := f.login(t, playerCode)

	superAdmin, err := f.players.UpsertByEmail(context.Background(), players.Profile{Email: "root@example.com"})
	require.NoError(t, err)
	require.NoError(t, f.players.SetAccessGroup(context.Background(), superAdmin.ID, players.AccessGroupSuperAdmin))
	f.provider.profiles["code-root"] = players.Profile{Email: "root@example.com"}
	superCookie := f.login(t, "code-root")

	for name, cookie := range map[string]*http.Cookie{
		"anonymous":   nil,
		"player":      playerCookie,
		"super-admin": superCookie,
	} {
		t.Run(name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, "/api/admin/players", nil, cookie)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			w = f.do(t, http.MethodPost, "/api/admin/players/1/demote", nil, cookie)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			w = f.do(t, http.MethodGet, "/api/admin/players", nil, cookie, "Accept", "text/html,application/xhtml+xml")
			require.Equal(t, http.StatusSeeOther, w.Code)
			require.Equal(t, "/", w.Header().Get("Location"))
		})
	}

	admin, err := f.players.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, admin.IsAdmin(), "rejected requests must not change anything")
}

func TestAdminRoutes(t *testing.T) {
	f := setupServerFixture(t)
	adminCookie := f.login(t, adminCode)
	player := decode[players.Player](t, f.do(t, http.MethodGet, "/api/me", nil, f.login(t, playerCode)))

	t.Run("list", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/admin/players", nil, adminCookie)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Players []players.Player `json:"players"`
			Limit   int              `json:"limit"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Players, 2)
		require.Equal(t, 100, body.Limit)

		w = f.do(t, http.MethodGet, "/api/admin/players?offset=1&limit=1", nil, adminCookie)
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Players, 1)
		require.Equal(t, player.ID, body.Players[0].ID)
	})

	t.Run("invalid paging", func(t *testing.T) {
		for _, query := range []string{"?offset=-1", "?limit=0", "?limit=501", "?limit=ten"} {
			w := f.do(t, http.MethodGet, "/api/admin/players"+query, nil, adminCookie)
			require.Equal(t, http.StatusBadRequest, w.Code, query)
		}
	})

	t.Run("promote and demote", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/admin/players/"+strconv.FormatInt(player.ID, 10)+"/promote", nil, adminCookie)
		require.Equal(t, http.StatusOK, w.Code)
		promoted := decode[players.Player](t, w)
		require.Equal(t, players.AccessGroupAdmin, promoted.Group())

		w = f.do(t, http.MethodPost, "/api/admin/players/"+strconv.FormatInt(player.ID, 10)+"/demote", nil, adminCookie)
		require.Equal(t, http.StatusOK, w.Code)
		demoted := decode[players.Player](t, w)
		require.Equal(t, players.AccessGroupUser, demoted.Group())
	})

	t.Run("unknown player", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/admin/players/999/promote", nil, adminCookie)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "not_found", decode[errorBody](t, w).Error)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/admin/players/abc/promote", nil, adminCookie)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminRoutes_DemotedAdminLosesAccessImmediately(t *testing.T) {
	f := setupServerFixture(t)
	adminCookie := f.login(t, adminCode)

	require.NoError(t, f.players.SetAccessGroup(context.Background(), 1, players.AccessGroupUser))

	w := f.do(t, http.MethodGet, "/api/admin/players", nil, adminCookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIndex(t *testing.T) {
	f := setupServerFixture(t)

	w := f.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `href="/login"`)

	w = f.do(t, http.MethodGet, "/", nil, f.login(t, playerCode))
	require.Contains(t, w.Body.String(), "Sam Keeper")
	require.Contains(t, w.Body.String(), `<form method="post" action="/logout">`)

	w = f.do(t, http.MethodGet, "/unknown", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	f := setupServerFixture(t)

	w := f.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())

	f.healthy = errors.ErrPersistence
	w = f.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupServerFixture(t)

	handler := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, f.server.HTMLMiddleWare()...)

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
