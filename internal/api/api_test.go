package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yuqi1124/TownRecord/internal/api/apierr"
	"github.com/Yuqi1124/TownRecord/internal/api/response"
	"github.com/Yuqi1124/TownRecord/internal/factory"
	"github.com/Yuqi1124/TownRecord/internal/web/ws"
)

// testServer wraps the router of a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	return &testServer{
		handler: app.Router(),
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createTown(t *testing.T, name string, listed bool) response.CreateTownResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/towns", map[string]any{
		"friendly_name":      name,
		"is_publicly_listed": listed,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.CreateTownResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (ts *testServer) joinTown(t *testing.T, townID, userName string) response.JoinTownResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/towns/"+townID+"/sessions", map[string]string{"user_name": userName}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	var resp response.JoinTownResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (ts *testServer) listTowns(t *testing.T) []response.Town {
	t.Helper()
	rr := ts.request(http.MethodGet, "/api/v1/towns", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.ListTownsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Towns
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateAndListTowns(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("PUB111", "public-password", "HID222", "hidden-password")

	created := ts.createTown(t, "Main Street", true)
	assert.Equal(t, "PUB111", created.TownID)
	assert.Equal(t, "public-password", created.TownUpdatePassword)
	ts.createTown(t, "Back Room", false)

	towns := ts.listTowns(t)
	require.Len(t, towns, 1)
	assert.Equal(t, response.Town{
		TownID:           "PUB111",
		FriendlyName:     "Main Street",
		CurrentOccupancy: 0,
		MaximumOccupancy: factory.TestTownCapacity,
		IsPubliclyListed: true,
	}, towns[0])
}

func TestListTownsEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/towns", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"towns":[]}`, rr.Body.String())
}

func TestCreateTownValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/towns", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/towns", map[string]any{"friendly_name": "   "}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidTownName, errorCode(t, rr))
}

func TestUpdateTown(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("TOWN01", "update-password")
	ts.createTown(t, "Main Street", true)

	rr := ts.request(http.MethodPatch, "/api/v1/towns/TOWN01", map[string]any{
		"password":      "wrong",
		"friendly_name": "Renamed",
	}, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeInvalidPassword, errorCode(t, rr))

	rr = ts.request(http.MethodPatch, "/api/v1/towns/TOWN01", map[string]any{
		"password":      "update-password",
		"friendly_name": "Renamed",
	}, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	towns := ts.listTowns(t)
	require.Len(t, towns, 1)
	assert.Equal(t, "Renamed", towns[0].FriendlyName)

	// Unlisting hides the town
	rr = ts.request(http.MethodPatch, "/api/v1/towns/TOWN01", map[string]any{
		"password":           "update-password",
		"is_publicly_listed": false,
	}, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, ts.listTowns(t))
}

func TestUpdateUnknownTown(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPatch, "/api/v1/towns/NOPE00", map[string]any{"password": "pw"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeTownNotFound, errorCode(t, rr))
}

func TestDeleteTown(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("TOWN01", "update-password")
	ts.createTown(t, "Main Street", true)

	rr := ts.request(http.MethodDelete, "/api/v1/towns/TOWN01", map[string]any{"password": "wrong"}, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/towns/TOWN01", map[string]any{"password": "update-password"}, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, ts.listTowns(t))

	rr = ts.request(http.MethodPost, "/api/v1/towns/TOWN01/sessions", map[string]string{"user_name": "Alice"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestJoinTown(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("TOWN01", "update-password", "alice-token")
	ts.app.MockRandom.QueueUUID("alice-id")
	ts.createTown(t, "Main Street", true)

	resp := ts.joinTown(t, "TOWN01", "Alice")
	assert.Equal(t, "alice-id", resp.PlayerID)
	assert.Equal(t, "alice-token", resp.SessionToken)
	assert.Equal(t, "video-TOWN01-alice-id", resp.VideoToken)
	assert.Equal(t, "Main Street", resp.FriendlyName)
	assert.True(t, resp.IsPubliclyListed)
	require.Len(t, resp.Players, 1)
	assert.Equal(t, "Alice", resp.Players[0].UserName)
	assert.Empty(t, resp.ConversationAreas)

	towns := ts.listTowns(t)
	assert.Equal(t, 1, towns[0].CurrentOccupancy)
}

func TestJoinTownErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("TOWN01", "update-password")
	ts.createTown(t, "Main Street", true)

	rr := ts.request(http.MethodPost, "/api/v1/towns/TOWN01/sessions", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))

	ts.app.MockVideo.Fail(errors.New("provider down"))
	rr = ts.request(http.MethodPost, "/api/v1/towns/TOWN01/sessions", map[string]string{"user_name": "Alice"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, apierr.CodeVideoUnavailable, errorCode(t, rr))

	ts.app.MockVideo.Fail(nil)
	for i := 0; i < factory.TestTownCapacity; i++ {
		ts.joinTown(t, "TOWN01", "player")
	}
	rr = ts.request(http.MethodPost, "/api/v1/towns/TOWN01/sessions", map[string]string{"user_name": "Late"}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeTownFull, errorCode(t, rr))
}

func TestConnectRequiresSession(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("TOWN01", "update-password")
	ts.createTown(t, "Main Street", true)

	rr := ts.request(http.MethodGet, "/api/v1/towns/NOPE00/connect", nil, "token")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/towns/TOWN01/connect", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/towns/TOWN01/connect", nil, "not-a-session")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))
}

func TestConnectWebsocket(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("TOWN01", "update-password")
	ts.createTown(t, "Main Street", true)
	alice := ts.joinTown(t, "TOWN01", "Alice")

	server := httptest.NewServer(ts.handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/towns/TOWN01/connect?token=" + alice.SessionToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var welcome ws.Envelope
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, ws.MessageWelcome, welcome.Type)

	var payload ws.WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &payload))
	assert.Equal(t, alice.PlayerID, string(payload.PlayerID))

	// A second connection for the same session is refused
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Closing the connection ends the session
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return len(ts.listTowns(t)) == 1 && ts.listTowns(t)[0].CurrentOccupancy == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueString("TOWN01", "update-password")
	ts.createTown(t, "Main Street", true)
	ts.joinTown(t, "TOWN01", "Alice")

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "town_active_towns 1")
	assert.Contains(t, rr.Body.String(), "town_active_sessions 1")
	assert.Contains(t, rr.Body.String(), `town_events_total{type="player_joined"} 1`)
}
