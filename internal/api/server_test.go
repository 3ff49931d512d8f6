package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/floor-layout/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e       *echo.Echo
	fx      *testutil.Fixture
	spy     *testutil.SpyProvider
	metrics *Metrics
	events  *EventHub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		e:       echo.New(),
		fx:      testutil.NewFixture(t),
		spy:     testutil.NewSpyProvider(),
		metrics: NewMetrics(),
		events:  NewEventHub(nil),
	}
	handlers := NewHandlers(&Dependencies{
		Store:    ts.fx.Store,
		Provider: ts.spy,
		Issuer:   ts.fx.Issuer,
		Metrics:  ts.metrics,
		Events:   ts.events,
		Mode:     "TEST",
		Version:  "test",
	})
	SetupMiddleware(ts.e, handlers, true)
	RegisterRoutes(ts.e, handlers)
	return ts
}

// do sends a request through the router. user selects the bearer token; "" sends none.
func (ts *testServer) do(t *testing.T, method, path, body, user string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set(echo.HeaderAuthorization, ts.fx.BearerFor(t, user))
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
