package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/techexlab/pois/internal/auth"
	"github.com/techexlab/pois/internal/eventlog"
	"github.com/techexlab/pois/internal/httpapi"
	"github.com/techexlab/pois/internal/pipeline"
	"github.com/techexlab/pois/internal/store"
)

func newTestServer(t *testing.T) (http.Handler, *store.Store, *auth.Service) {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	events := eventlog.New(s.DB(), true)
	authSvc := auth.NewService(s.DB(), "test-secret")
	p := pipeline.New(s, s, events, pipeline.Config{AcquisitionPointIdentity: "pois-go-test", DefaultSegmentationTypeID: 0x10}, nil)

	_, router := httpapi.New(p, s, events, authSvc, nil, nil, "dev-token", 5*time.Second)
	return router, s, authSvc
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestChannelCRUD_adminToken(t *testing.T) {
	router, _, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"name": "cnn"})
	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer dev-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	req2.Header.Set("Authorization", "Bearer dev-token")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusOK, rec2.Code)
	require.Contains(t, rec2.Body.String(), "cnn")
}

func TestChannelCRUD_requiresAuth(t *testing.T) {
	router, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestESAM_unknownChannel(t *testing.T) {
	router, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/esam/channel/ghost", bytes.NewReader([]byte(
		`<sig:SignalProcessingEvent xmlns:sig="urn:cablelabs:iptvservices:esam:xsd:signal:1"><sig:AcquiredSignal acquisitionSignalID="x"/></sig:SignalProcessingEvent>`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin(t *testing.T) {
	router, _, authSvc := newTestServer(t)
	_, err := authSvc.CreateUser(context.Background(), "alice", "pw", auth.RoleAdmin, nil)
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "pw"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "token")
}

func TestLogin_badCredentials(t *testing.T) {
	router, _, _ := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"username": "nobody", "password": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
