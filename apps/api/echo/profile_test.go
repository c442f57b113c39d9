package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyhuddle/backend/core/profile"
)

func Test_profileApi_register(t *testing.T) {
	env := setupServer(t)
	createProfile(t, env, "Taken", "taken@test.cd", "passw0rd1")

	newProf := func(email string) []byte {
		return marchallObj(t, map[string]string{
			"email":            email,
			"full_name":        "Jane Poe",
			"password":         "passw0rd1",
			"password_confirm": "passw0rd1",
		})
	}

	tests := []httpTest{
		{name: "email required", method: http.MethodPost, path: "/v1/auth/register",
			body:     marchallObj(t, map[string]string{"full_name": "J", "password": "passw0rd1", "password_confirm": "passw0rd1"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "this field is required"})},
		{name: "password mismatch", method: http.MethodPost, path: "/v1/auth/register",
			body: marchallObj(t, map[string]string{
				"email": "jane@test.cd", "full_name": "J", "password": "passw0rd1", "password_confirm": "nope12345",
			}),
			wantCode: http.StatusBadRequest},
		{name: "email taken", method: http.MethodPost, path: "/v1/auth/register", body: newProf("taken@test.cd"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a profile with this email already exists"})},
		{name: "registered", method: http.MethodPost, path: "/v1/auth/register", body: newProf("jane@test.cd"),
			wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var got profile.Profile
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshalling response failed: %v", err)
				}
				assert.Equal(t, "jane@test.cd", got.Email)
				assert.NotEmpty(t, got.ID)
				assert.NotContains(t, rec.Body.String(), "password")
			}
		})
	}
}

func Test_profileApi_login(t *testing.T) {
	env := setupServer(t)
	createProfile(t, env, "Jane", "jane@test.cd", "passw0rd1")

	login := func(email, pwd string) []byte {
		return marchallObj(t, map[string]string{"email": email, "password": pwd})
	}

	tests := []httpTest{
		{name: "fields required", method: http.MethodPost, path: "/v1/auth/login", body: login("", ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"})},
		{name: "unknown email", method: http.MethodPost, path: "/v1/auth/login", body: login("who@test.cd", "passw0rd1"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "wrong password", method: http.MethodPost, path: "/v1/auth/login", body: login("jane@test.cd", "nope"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "ok", method: http.MethodPost, path: "/v1/auth/login", body: login("jane@test.cd", "passw0rd1"),
			wantCode: http.StatusOK},
		{name: "email is case-insensitive", method: http.MethodPost, path: "/v1/auth/login",
			body: login("JANE@Test.CD", "passw0rd1"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var got LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("unmarshalling response failed: %v", err)
				}
				assert.NotEmpty(t, got.Token)
			}
		})
	}
}

func Test_profileApi_tokenRefresh(t *testing.T) {
	env := setupServer(t)
	jane := createProfile(t, env, "Jane", "jane@test.cd", "passw0rd1")
	token := getToken(t, jane)

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	assert.NotEmpty(t, got.Token)

	req, rec = newRequest(http.MethodPost, "/v1/auth/token-refresh")
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_profileApi_me(t *testing.T) {
	env := setupServer(t)
	jane := createProfile(t, env, "Jane", "jane@test.cd", "passw0rd1")
	token := getToken(t, jane)

	req, rec := newAuthRequest(http.MethodGet, "/v1/profiles/me", token)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got profile.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	assert.Equal(t, jane.ID, got.ID)

	// update
	body := marchallObj(t, map[string]string{"full_name": "Jane Doe", "avatar_url": "https://cdn.test/janed.png"})
	req, rec = newAuthRequest(http.MethodPut, "/v1/profiles/me", token, body)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	got = profile.Profile{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	assert.Equal(t, "Jane Doe", got.FullName)
	assert.Equal(t, "https://cdn.test/janed.png", got.AvatarURL)
}

func Test_profileApi_pushToken(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()
	jane := createProfile(t, env, "Jane", "jane@test.cd", "passw0rd1")
	token := getToken(t, jane)

	tests := []httpTest{
		{name: "token required", method: http.MethodPut, path: "/v1/profiles/me/push-token", token: token,
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"token": "this field is required"})},
		{name: "registered", method: http.MethodPut, path: "/v1/profiles/me/push-token", token: token,
			body: marchallObj(t, map[string]string{"token": "device-token"}), wantCode: http.StatusNoContent},
		{name: "forgotten", method: http.MethodDelete, path: "/v1/profiles/me/push-token", token: token,
			wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			prof, err := env.profileSvc.GetByID(ctx, jane.ID)
			if err != nil {
				t.Fatalf("GetByID() failed: %v", err)
			}
			switch tt.name {
			case "registered":
				assert.True(t, prof.CanReceivePush())
			case "forgotten":
				assert.False(t, prof.CanReceivePush())
			}
		})
	}
}

func Test_profileApi_studySessionsAndLeaderboard(t *testing.T) {
	env := setupServer(t)
	jane := createProfile(t, env, "Jane", "jane@test.cd", "passw0rd1")
	john := createProfile(t, env, "John", "john@test.cd", "passw0rd1")
	token := getToken(t, jane)

	// invalid minutes
	req, rec := newAuthRequest(http.MethodPost, "/v1/profiles/me/study-sessions", token,
		marchallObj(t, map[string]int{"minutes": 0}))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 25 pomodoro minutes
	req, rec = newAuthRequest(http.MethodPost, "/v1/profiles/me/study-sessions", token,
		marchallObj(t, map[string]int{"minutes": 25}))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got profile.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	assert.Equal(t, 250, got.StudyPoints)
	assert.Equal(t, 25, got.TotalStudyMinutes)
	assert.Equal(t, 1, got.CurrentStreak)

	// leaderboard ranks jane over john
	req, rec = newAuthRequest(http.MethodGet, "/v1/leaderboard", getToken(t, john))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []profile.LeaderboardEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "Jane", entries[0].FullName)
		assert.Equal(t, 250, entries[0].StudyPoints)
	}
}
