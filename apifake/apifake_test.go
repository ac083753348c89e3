package apifake_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/paramed-portal/apifake"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginResponse struct {
	Data struct {
		Token string      `json:"token"`
		User  *users.User `json:"user"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newSeededServer(t *testing.T, opts ...apifake.Option) *apifake.Server {
	t.Helper()
	api := apifake.New("test-secret", time.Hour, opts...)
	require.NoError(t, api.SeedDemoUsers())
	return api
}

func login(t *testing.T, api http.Handler, email, password string) (*httptest.ResponseRecorder, loginResponse) {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, apifake.PathLogin, strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func get(api http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	api := newSeededServer(t)

	rec, resp := login(t, api, "student@institut.test", "Student1234")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, resp.Data.Token)
	require.Equal(t, users.RoleStudent, resp.Data.User.Role)
	require.NotEmpty(t, resp.Data.User.ID)
	require.NotContains(t, rec.Body.String(), "$2a$", "password hash must never leave the fake")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newSeededServer(t)

	rec, resp := login(t, api, "student@institut.test", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", resp.Error.Message)

	rec, _ = login(t, api, "nobody@institut.test", "Student1234")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = login(t, api, "", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMe(t *testing.T) {
	api := newSeededServer(t)
	_, resp := login(t, api, "admin@institut.test", "Admin1234")

	rec := get(api, apifake.PathMe, resp.Data.Token)

	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Data users.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, resp.Data.User.ID, me.Data.ID)
	require.Equal(t, users.RoleAdmin, me.Data.Role)
}

func TestMeRejectsMissingOrForgedToken(t *testing.T) {
	api := newSeededServer(t)

	require.Equal(t, http.StatusUnauthorized, get(api, apifake.PathMe, "").Code)
	require.Equal(t, http.StatusUnauthorized, get(api, apifake.PathMe, "not-a-jwt").Code)

	other := apifake.New("another-secret", time.Hour)
	u, err := other.AddUser(users.User{Email: "x@institut.test", Role: users.RoleStudent}, "Student1234")
	require.NoError(t, err)
	forged, err := other.IssueToken(u)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, get(api, apifake.PathMe, forged).Code)
}

func TestExpiredToken(t *testing.T) {
	now := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	api := newSeededServer(t, apifake.WithNowFunc(func() time.Time { return now }))
	_, resp := login(t, api, "student@institut.test", "Student1234")
	require.Equal(t, http.StatusOK, get(api, apifake.PathMe, resp.Data.Token).Code)

	now = now.Add(2 * time.Hour)

	require.Equal(t, http.StatusUnauthorized, get(api, apifake.PathMe, resp.Data.Token).Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	api := newSeededServer(t)
	_, resp := login(t, api, "student@institut.test", "Student1234")

	req := httptest.NewRequest(http.MethodPost, apifake.PathLogout, nil)
	req.Header.Set("Authorization", "Bearer "+resp.Data.Token)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusUnauthorized, get(api, apifake.PathMe, resp.Data.Token).Code)
}

func TestRoleProtectedEndpoints(t *testing.T) {
	api := newSeededServer(t)
	_, student := login(t, api, "student@institut.test", "Student1234")
	_, admin := login(t, api, "admin@institut.test", "Admin1234")

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{name: "student planning", path: apifake.PathStudentPlanning, token: student.Data.Token, status: http.StatusOK},
		{name: "admin on planning", path: apifake.PathStudentPlanning, token: admin.Data.Token, status: http.StatusForbidden},
		{name: "admin stats", path: apifake.PathAdminStats, token: admin.Data.Token, status: http.StatusOK},
		{name: "student on stats", path: apifake.PathAdminStats, token: student.Data.Token, status: http.StatusForbidden},
		{name: "anonymous", path: apifake.PathAdminStats, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, get(api, tt.path, tt.token).Code)
		})
	}

	var stats struct {
		Data apifake.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(get(api, apifake.PathAdminStats, admin.Data.Token).Body.Bytes(), &stats))
	require.Equal(t, apifake.Stats{Students: 1, Admins: 1, Filieres: 1, Specialities: 1}, stats.Data)
}

func TestFaultsAreCountedAndExpire(t *testing.T) {
	api := newSeededServer(t)
	api.SetFault(apifake.PathMe, apifake.Fault{Status: http.StatusServiceUnavailable, Message: "maintenance", Times: 2})

	first := get(api, apifake.PathMe, "")
	require.Equal(t, http.StatusServiceUnavailable, first.Code)
	require.Contains(t, first.Body.String(), "maintenance")
	require.Equal(t, http.StatusServiceUnavailable, get(api, apifake.PathMe, "").Code)
	require.Equal(t, http.StatusUnauthorized, get(api, apifake.PathMe, "").Code)

	require.Equal(t, 3, api.Hits(apifake.PathMe))
	require.Zero(t, api.Hits(apifake.PathLogin))
}

func TestClearFault(t *testing.T) {
	api := newSeededServer(t)
	api.SetFault(apifake.PathMe, apifake.Fault{Status: http.StatusInternalServerError})
	require.Equal(t, http.StatusInternalServerError, get(api, apifake.PathMe, "").Code)

	api.ClearFault(apifake.PathMe)

	require.Equal(t, http.StatusUnauthorized, get(api, apifake.PathMe, "").Code)
}

func TestHoldBlocksUntilReleased(t *testing.T) {
	api := newSeededServer(t)
	release := api.Hold(apifake.PathMe)

	done := make(chan int, 1)
	go func() { done <- get(api, apifake.PathMe, "").Code }()

	select {
	case <-done:
		t.Fatal("request completed while held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	release()
	require.Equal(t, http.StatusUnauthorized, <-done)
}

func TestLastAuthorization(t *testing.T) {
	api := newSeededServer(t)

	get(api, apifake.PathMe, "abc")

	require.Equal(t, "Bearer abc", api.LastAuthorization(apifake.PathMe))
	require.Empty(t, api.LastAuthorization(apifake.PathLogout))
}
