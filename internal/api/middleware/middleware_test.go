package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/Yuqi1124/TownRecord/internal/api/apierr"
	"github.com/Yuqi1124/TownRecord/internal/api/middleware"
	"github.com/Yuqi1124/TownRecord/internal/dependencies/mocks"
	"github.com/Yuqi1124/TownRecord/internal/services/registry"
	"github.com/Yuqi1124/TownRecord/internal/storage/memory"
	"github.com/Yuqi1124/TownRecord/internal/testutil"
)

type SessionSuite struct {
	suite.Suite
	random   *mocks.MockRandom
	registry *registry.Registry
	router   *mux.Router
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.registry = registry.New(
		registry.Config{PasswordCost: bcrypt.MinCost},
		memory.New(),
		mocks.NewMockVideoIssuer(),
		mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		s.random,
		nil,
		testutil.NopLogger(),
	)

	s.router = mux.NewRouter()
	sub := s.router.PathPrefix("/towns/{townID}").Subrouter()
	sub.Use(middleware.Session(s.registry))
	sub.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		controller, session := middleware.MustGetSession(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]string{
			"town":   string(controller.ID()),
			"player": string(session.PlayerID),
		})
	})

	s.random.QueueString("TOWN01", "password")
	_, err := s.registry.Create(context.Background(), "Town", true)
	s.Require().NoError(err)

	s.random.QueueUUID("alice-id")
	s.random.QueueString("alice-token")
	_, _, err = s.registry.Join(context.Background(), "TOWN01", "alice")
	s.Require().NoError(err)
}

func (s *SessionSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *SessionSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var resp apierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func (s *SessionSuite) TestBearerToken() {
	req := httptest.NewRequest(http.MethodGet, "/towns/TOWN01/whoami", nil)
	req.Header.Set("Authorization", "Bearer alice-token")

	rec := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"town":"TOWN01","player":"alice-id"}`, rec.Body.String())
}

func (s *SessionSuite) TestQueryToken() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/towns/TOWN01/whoami?token=alice-token", nil))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *SessionSuite) TestMissingToken() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/towns/TOWN01/whoami", nil))

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(apierr.CodeUnauthorized, s.errorCode(rec))
}

func (s *SessionSuite) TestUnknownToken() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/towns/TOWN01/whoami?token=nope", nil))

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(apierr.CodeSessionNotFound, s.errorCode(rec))
}

func (s *SessionSuite) TestUnknownTown() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/towns/NOPE99/whoami?token=alice-token", nil))

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(apierr.CodeTownNotFound, s.errorCode(rec))
}

func (s *SessionSuite) TestTokenFromOtherTownIsRejected() {
	s.random.QueueString("TOWN02", "password")
	_, err := s.registry.Create(context.Background(), "Other", true)
	s.Require().NoError(err)

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/towns/TOWN02/whoami?token=alice-token", nil))

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func TestMustGetSessionPanicsWithoutMiddleware(t *testing.T) {
	assert.Panics(t, func() {
		middleware.MustGetSession(context.Background())
	})
}

func TestRecoveryWritesInternalError(t *testing.T) {
	handler := middleware.Logging(testutil.NopLogger())(
		middleware.Recovery(testutil.NopLogger())(
			http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apierr.CodeInternalError, resp.Error.Code)
}
