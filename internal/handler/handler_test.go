package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"watch-me-run-api/internal/auth"
	"watch-me-run-api/internal/handler"
	"watch-me-run-api/internal/live"
	"watch-me-run-api/internal/model"
	"watch-me-run-api/internal/notify"
	"watch-me-run-api/internal/store"
)

func setup(t *testing.T) (*httptest.Server, *store.Store, string) {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	secret := os.Getenv("JWT_SECRET")
	if dbURL == "" || secret == "" {
		t.Skip("DATABASE_URL or JWT_SECRET not set")
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(pool.Close)
	st := store.New(pool)
	h := handler.New(st, live.NewHub(), notify.NewPolicy(st), secret)
	ts := httptest.NewServer(h.Routes())
	t.Cleanup(ts.Close)
	return ts, st, secret
}

// do sends a JSON request and decodes the JSON response into out (when out
// is non-nil). token goes into the Authorization header.
func do(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp
}

func registerUser(t *testing.T, ts *httptest.Server, secret string) (userID, token string) {
	t.Helper()
	email := fmt.Sprintf("test-%s@test.com", uuid.New().String()[:8])
	var out struct {
		UserID string `json:"userId"`
	}
	resp := do(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "testpass123", "name": "Test Runner",
	}, &out)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}
	tok, err := auth.NewAccessToken(out.UserID, secret)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return out.UserID, tok
}

func createRace(t *testing.T, ts *httptest.Server, token string, hoursFromNow int) model.UserRace {
	t.Helper()
	var out struct {
		Race model.UserRace `json:"race"`
	}
	resp := do(t, ts, http.MethodPost, "/api/races", token, map[string]any{
		"name":     fmt.Sprintf("race-%d", hoursFromNow),
		"distance": "8K",
		"date":     time.Now().Add(time.Duration(hoursFromNow) * time.Hour),
		"location": "Franklin Park",
	}, &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create race: status %d", resp.StatusCode)
	}
	return out.Race
}

// ----- auth tests -----

func TestRegister(t *testing.T) {
	ts, _, _ := setup(t)

	email := fmt.Sprintf("test-%s@test.com", uuid.New().String()[:8])
	var out struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
	}
	resp := do(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "testpass123", "name": "Test Runner",
	}, &out)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if out.UserID == "" {
		t.Fatal("empty user id")
	}
	var gotAccess bool
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" && c.Value != "" {
			gotAccess = true
		}
	}
	if !gotAccess {
		t.Fatal("no access_token cookie")
	}
}

func TestRegisterValidation(t *testing.T) {
	ts, _, _ := setup(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"empty email", map[string]string{"email": "", "password": "testpass123", "name": "X"}},
		{"empty password", map[string]string{"email": "a@b.com", "password": "", "name": "X"}},
		{"short password", map[string]string{"email": "a@b.com", "password": "short", "name": "X"}},
		{"empty name", map[string]string{"email": "a@b.com", "password": "testpass123", "name": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, http.MethodPost, "/auth/register", "", tt.body, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ts, _, _ := setup(t)

	email := fmt.Sprintf("test-%s@test.com", uuid.New().String()[:8])
	body := map[string]string{"email": email, "password": "testpass123", "name": "First"}
	if resp := do(t, ts, http.MethodPost, "/auth/register", "", body, nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register: status %d", resp.StatusCode)
	}
	body["name"] = "Second"
	if resp := do(t, ts, http.MethodPost, "/auth/register", "", body, nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
}

func TestLoginSuccess(t *testing.T) {
	ts, _, _ := setup(t)

	email := fmt.Sprintf("test-%s@test.com", uuid.New().String()[:8])
	do(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "testpass123", "name": "Login User",
	}, nil)

	var out struct {
		Name string `json:"name"`
	}
	resp := do(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "testpass123",
	}, &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	if out.Name != "Login User" {
		t.Errorf("expected name 'Login User', got '%s'", out.Name)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts, _, _ := setup(t)

	email := fmt.Sprintf("test-%s@test.com", uuid.New().String()[:8])
	do(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "testpass123", "name": "X",
	}, nil)

	resp := do(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "wrongpassword",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestUnauthenticatedRequest(t *testing.T) {
	ts, _, _ := setup(t)

	resp := do(t, ts, http.MethodGet, "/api/races", "", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

// ----- race CRUD -----

func TestCreateRace(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	race := createRace(t, ts, token, 100)
	if race.ID == "" {
		t.Fatal("empty id")
	}
	if race.Name != "race-100" {
		t.Errorf("name: got %s", race.Name)
	}
	if race.Distance != "8K" {
		t.Errorf("distance: got %s", race.Distance)
	}

	var list struct {
		Races []model.UserRace `json:"races"`
	}
	do(t, ts, http.MethodGet, "/api/races", token, nil, &list)
	if len(list.Races) != 1 {
		t.Fatalf("expected 1 race, got %d", len(list.Races))
	}
}

func TestCreateRaceValidation(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	date := time.Now().Add(48 * time.Hour)
	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty name", map[string]any{"name": "", "date": date}},
		{"missing date", map[string]any{"name": "X"}},
		{"bad time zone", map[string]any{"name": "X", "date": date, "timeZone": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, http.MethodPost, "/api/races", token, tt.body, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestUpdateForeignRace(t *testing.T) {
	ts, _, secret := setup(t)
	_, ownerTok := registerUser(t, ts, secret)
	_, otherTok := registerUser(t, ts, secret)

	race := createRace(t, ts, ownerTok, 72)

	resp := do(t, ts, http.MethodPut, "/api/races/"+race.ID, otherTok, map[string]any{
		"name": "hijacked", "date": race.Date,
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign race, got %d", resp.StatusCode)
	}
}

func TestDeleteRace(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	race := createRace(t, ts, token, 50)
	if resp := do(t, ts, http.MethodDelete, "/api/races/"+race.ID, token, nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	var list struct {
		Races []model.UserRace `json:"races"`
	}
	do(t, ts, http.MethodGet, "/api/races", token, nil, &list)
	if len(list.Races) != 0 {
		t.Fatalf("expected 0 races, got %d", len(list.Races))
	}
}

// ----- reminders -----

func TestOwnerReminderLifecycle(t *testing.T) {
	ts, _, secret := setup(t)
	userID, token := registerUser(t, ts, secret)

	// opt in to notifications first; scheduling is a silent no-op otherwise
	settings := model.DefaultSettings()
	settings.NotificationsEnabled = true
	if resp := do(t, ts, http.MethodPut, "/api/settings", token, settings, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("settings: status %d", resp.StatusCode)
	}

	race := createRace(t, ts, token, 100)

	var pending struct {
		Reminders []notify.Reminder `json:"reminders"`
	}
	do(t, ts, http.MethodGet, "/api/reminders", token, nil, &pending)
	if len(pending.Reminders) != 1 {
		t.Fatalf("expected 1 pending reminder, got %d", len(pending.Reminders))
	}
	want := notify.OwnerIdentity(userID, race.ID)
	if pending.Reminders[0].Identity != want {
		t.Errorf("identity: got %s, want %s", pending.Reminders[0].Identity, want)
	}

	do(t, ts, http.MethodDelete, "/api/races/"+race.ID, token, nil, nil)
	pending.Reminders = nil
	do(t, ts, http.MethodGet, "/api/reminders", token, nil, &pending)
	if len(pending.Reminders) != 0 {
		t.Fatalf("expected no pending reminders after delete, got %d", len(pending.Reminders))
	}
}

func TestReminderSilentWithoutOptIn(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	createRace(t, ts, token, 100)

	var pending struct {
		Reminders []notify.Reminder `json:"reminders"`
	}
	do(t, ts, http.MethodGet, "/api/reminders", token, nil, &pending)
	if len(pending.Reminders) != 0 {
		t.Fatalf("expected no reminders while notifications are off, got %d", len(pending.Reminders))
	}
}

// ----- watching -----

func TestToggleFriend(t *testing.T) {
	ts, _, secret := setup(t)
	friendID, _ := registerUser(t, ts, secret)
	_, token := registerUser(t, ts, secret)

	var out struct {
		Watching bool `json:"watching"`
	}
	do(t, ts, http.MethodPost, "/api/watching/friends/"+friendID+"/toggle", token, nil, &out)
	if !out.Watching {
		t.Fatal("expected watching=true after first toggle")
	}

	var w model.Watching
	do(t, ts, http.MethodGet, "/api/watching", token, nil, &w)
	if len(w.FriendIDs) != 1 || w.FriendIDs[0] != friendID {
		t.Fatalf("friend ids: got %v", w.FriendIDs)
	}

	do(t, ts, http.MethodPost, "/api/watching/friends/"+friendID+"/toggle", token, nil, &out)
	if out.Watching {
		t.Fatal("expected watching=false after second toggle")
	}
}

func TestWatchSelfRejected(t *testing.T) {
	ts, _, secret := setup(t)
	userID, token := registerUser(t, ts, secret)

	resp := do(t, ts, http.MethodPost, "/api/watching/friends/"+userID+"/toggle", token, nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWatchFriendSchedulesReminders(t *testing.T) {
	ts, _, secret := setup(t)
	friendID, friendTok := registerUser(t, ts, secret)
	_, token := registerUser(t, ts, secret)

	createRace(t, ts, friendTok, 200)

	settings := model.DefaultSettings()
	settings.NotificationsEnabled = true
	do(t, ts, http.MethodPut, "/api/settings", token, settings, nil)

	do(t, ts, http.MethodPost, "/api/watching/friends/"+friendID+"/toggle", token, nil, nil)

	// default slots: first 20m enabled, second 0m disabled
	var pending struct {
		Reminders []notify.Reminder `json:"reminders"`
	}
	do(t, ts, http.MethodGet, "/api/reminders", token, nil, &pending)
	if len(pending.Reminders) != 1 {
		t.Fatalf("expected 1 watching reminder, got %d", len(pending.Reminders))
	}

	do(t, ts, http.MethodPost, "/api/watching/friends/"+friendID+"/toggle", token, nil, nil)
	pending.Reminders = nil
	do(t, ts, http.MethodGet, "/api/reminders", token, nil, &pending)
	if len(pending.Reminders) != 0 {
		t.Fatalf("expected no reminders after unwatch, got %d", len(pending.Reminders))
	}
}

// ----- profile and search -----

func TestProfileRoundTrip(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	body := map[string]any{
		"searchable":  true,
		"name":        "Ayo Runner",
		"location":    "Boston, MA",
		"sex":         "F",
		"affiliation": "BAA",
	}
	if resp := do(t, ts, http.MethodPut, "/api/profile", token, body, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("save profile: status %d", resp.StatusCode)
	}

	var details model.UserDetails
	do(t, ts, http.MethodGet, "/api/profile", token, nil, &details)
	if details.Name != "Ayo Runner" || !details.Searchable {
		t.Fatalf("profile: got %+v", details)
	}
}

func TestSearchUsers(t *testing.T) {
	ts, _, secret := setup(t)
	_, friendTok := registerUser(t, ts, secret)
	_, token := registerUser(t, ts, secret)

	// a unique prefix keeps this test independent of leftover rows
	name := "Zq" + uuid.New().String()[:6]
	do(t, ts, http.MethodPut, "/api/profile", friendTok, map[string]any{
		"searchable": true, "name": name,
	}, nil)

	var out struct {
		Results []model.FriendSearchResult `json:"results"`
	}
	do(t, ts, http.MethodGet, "/api/users/search?q="+name[:4], token, nil, &out)
	if len(out.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out.Results))
	}
	if out.Results[0].Name != name {
		t.Errorf("name: got %s", out.Results[0].Name)
	}

	// short queries return nothing rather than scanning everyone
	out.Results = nil
	do(t, ts, http.MethodGet, "/api/users/search?q=Z", token, nil, &out)
	if len(out.Results) != 0 {
		t.Fatalf("expected empty result for 1-char query, got %d", len(out.Results))
	}
}

func TestUnsearchableProfileHidden(t *testing.T) {
	ts, _, secret := setup(t)
	_, friendTok := registerUser(t, ts, secret)
	_, token := registerUser(t, ts, secret)

	name := "Xw" + uuid.New().String()[:6]
	do(t, ts, http.MethodPut, "/api/profile", friendTok, map[string]any{
		"searchable": false, "name": name,
	}, nil)

	var out struct {
		Results []model.FriendSearchResult `json:"results"`
	}
	do(t, ts, http.MethodGet, "/api/users/search?q="+name[:4], token, nil, &out)
	if len(out.Results) != 0 {
		t.Fatalf("unsearchable profile leaked: %v", out.Results)
	}
}

// ----- settings -----

func TestSettingsRoundTrip(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	var st model.Settings
	do(t, ts, http.MethodGet, "/api/settings", token, nil, &st)
	if st.OwnerHoursBefore != 6 || st.WatchingFirstMinutes != 20 {
		t.Fatalf("defaults: got %+v", st)
	}

	st.NotificationsEnabled = true
	st.OwnerHoursBefore = 12
	if resp := do(t, ts, http.MethodPut, "/api/settings", token, st, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("save settings: status %d", resp.StatusCode)
	}

	var got model.Settings
	do(t, ts, http.MethodGet, "/api/settings", token, nil, &got)
	if got.OwnerHoursBefore != 12 || !got.NotificationsEnabled {
		t.Fatalf("settings: got %+v", got)
	}
}

func TestSettingsChangeReschedules(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	settings := model.DefaultSettings()
	settings.NotificationsEnabled = true
	do(t, ts, http.MethodPut, "/api/settings", token, settings, nil)

	race := createRace(t, ts, token, 100)

	settings.OwnerHoursBefore = 24
	do(t, ts, http.MethodPut, "/api/settings", token, settings, nil)

	var pending struct {
		Reminders []notify.Reminder `json:"reminders"`
	}
	do(t, ts, http.MethodGet, "/api/reminders", token, nil, &pending)
	if len(pending.Reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(pending.Reminders))
	}
	wantFire := race.Date.Add(-24 * time.Hour).Truncate(time.Minute)
	if !pending.Reminders[0].FireAt.Equal(wantFire) {
		t.Errorf("fire at: got %v, want %v", pending.Reminders[0].FireAt, wantFire)
	}
}

func TestOptOutCancelsPending(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	settings := model.DefaultSettings()
	settings.NotificationsEnabled = true
	do(t, ts, http.MethodPut, "/api/settings", token, settings, nil)
	createRace(t, ts, token, 100)

	settings.NotificationsEnabled = false
	do(t, ts, http.MethodPut, "/api/settings", token, settings, nil)

	var pending struct {
		Reminders []notify.Reminder `json:"reminders"`
	}
	do(t, ts, http.MethodGet, "/api/reminders", token, nil, &pending)
	if len(pending.Reminders) != 0 {
		t.Fatalf("expected 0 reminders after opt-out, got %d", len(pending.Reminders))
	}
}

// ----- live -----

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestLiveStreamsSnapshots(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	hdr := http.Header{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/live?topics=races"), hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	createRace(t, ts, token, 100)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap struct {
		Topic string `json:"topic"`
	}
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.HasPrefix(snap.Topic, "races:") {
		t.Errorf("topic: got %q", snap.Topic)
	}
}

func TestLiveRejectsForeignOrigin(t *testing.T) {
	ts, _, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	hdr := http.Header{
		"Authorization": {"Bearer " + token},
		"Origin":        {"https://evil.example.com"},
	}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/live"), hdr)
	if err == nil {
		conn.Close()
		t.Fatal("expected cross-origin upgrade to fail")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
}

// ----- meets -----

func TestListMeetsGrouping(t *testing.T) {
	ts, st, secret := setup(t)
	_, token := registerUser(t, ts, secret)

	now := time.Now()
	seed := []model.Meet{
		{ID: uuid.New().String(), Name: "Old Invite", Date: now.AddDate(0, 0, -30), Level: "HS", Priority: 1},
		{ID: uuid.New().String(), Name: "This Weekend", Date: now.AddDate(0, 0, 1), Level: "HS", Priority: 1},
		{ID: uuid.New().String(), Name: "Championships", Date: now.AddDate(0, 0, 30), Level: "HS", Priority: 1},
	}
	if err := st.ReplaceMeets(context.Background(), seed); err != nil {
		t.Fatalf("seed meets: %v", err)
	}

	var out struct {
		Past     []model.Meet `json:"past"`
		Current  []model.Meet `json:"current"`
		Upcoming []model.Meet `json:"upcoming"`
	}
	do(t, ts, http.MethodGet, "/api/meets", token, nil, &out)
	if len(out.Past) != 1 || out.Past[0].Name != "Old Invite" {
		t.Errorf("past: got %v", out.Past)
	}
	if len(out.Current) != 1 || out.Current[0].Name != "This Weekend" {
		t.Errorf("current: got %v", out.Current)
	}
	if len(out.Upcoming) != 1 || out.Upcoming[0].Name != "Championships" {
		t.Errorf("upcoming: got %v", out.Upcoming)
	}
}
