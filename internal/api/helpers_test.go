package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/transfer-studio/backend/internal/inference"
	"github.com/transfer-studio/backend/internal/models"
	"github.com/transfer-studio/backend/internal/parser"
	"github.com/transfer-studio/backend/internal/report"
	"github.com/transfer-studio/backend/internal/session"
	"github.com/transfer-studio/backend/internal/testutil"
)

var testNow = time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)

type fakeHistory struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
}

func (f *fakeHistory) Record(_ context.Context, e models.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append([]models.HistoryEntry{e}, f.entries...)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]models.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return append([]models.HistoryEntry(nil), f.entries[:limit]...), nil
}

func (f *fakeHistory) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries), nil
}

type testServer struct {
	e        *echo.Echo
	sessions *session.Manager
	store    *testutil.MockStorage
	history  *fakeHistory
}

func newTestServer(t *testing.T, delay time.Duration) *testServer {
	t.Helper()

	profiles, err := inference.DefaultProfiles()
	require.NoError(t, err)
	clock := func() time.Time { return testNow }
	provider, err := inference.NewMockProvider(profiles, delay, inference.WithClock(clock))
	require.NoError(t, err)

	store := testutil.NewMockStorage()
	history := &fakeHistory{}
	mgr := session.NewManager(parser.NewRegistry(0), provider, store, session.WithRecorder(history))
	t.Cleanup(mgr.Close)

	e := echo.New()
	SetupMiddleware(e, MiddlewareConfig{})
	RegisterRoutes(e, NewHandlers(&Dependencies{
		SessionMgr:           mgr,
		History:              history,
		Reports:              report.NewGeneratorWithClock(clock),
		Version:              "test",
		AnalyzeWait:          2 * time.Second,
		AllowSessionDeletion: true,
	}))

	return &testServer{e: e, sessions: mgr, store: store, history: history}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		data, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	return s.do(req)
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	rec := s.request(http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap.ID
}

func (s *testServer) upload(t *testing.T, id, name, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/file", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return s.do(req)
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr), rec.Body.String())
	return apiErr
}
