package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/couchcryptid/weather-skill-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
	"github.com/couchcryptid/weather-skill-service/internal/skill"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type memRecorder struct {
	mu      sync.Mutex
	records []domain.DispatchRecord
}

func (m *memRecorder) Record(rec domain.DispatchRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *memRecorder) all() []domain.DispatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DispatchRecord(nil), m.records...)
}

type skillResponse struct {
	Version  string `json:"version"`
	Response struct {
		OutputSpeech struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"outputSpeech"`
		ShouldEndSession bool `json:"shouldEndSession"`
	} `json:"response"`
}

func newStubSkill() *skill.Skill {
	return skill.New(nil, skill.NewStubComposer(), domain.Coordinates{}, slog.Default(), observability.NewMetricsForTesting())
}

func newTestServer(readyErr error, rec httpadapter.Recorder) *httpadapter.Server {
	return httpadapter.NewServer(":0", newStubSkill(), &mockReadiness{err: readyErr}, rec, slog.Default())
}

func intentBody(name string) string {
	return fmt.Sprintf(`{"version":"1.0","session":{"sessionId":"s-1","new":false},`+
		`"request":{"type":"IntentRequest","requestId":"r-1","locale":"en-US","intent":{"name":%q}}}`, name)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("weather breaker open"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSkill_Webhook(t *testing.T) {
	recorder := &memRecorder{}
	ts := httptest.NewServer(newTestServer(nil, recorder))
	defer ts.Close()

	client := resty.New().SetBaseURL(ts.URL)

	tests := []struct {
		name         string
		method       string
		body         string
		expectedCode int
		expectedText string
		endSession   bool
	}{
		{
			name:         "method_get",
			method:       http.MethodGet,
			expectedCode: http.StatusMethodNotAllowed,
		},
		{
			name:         "method_put",
			method:       http.MethodPut,
			body:         intentBody("weatherIntent"),
			expectedCode: http.StatusMethodNotAllowed,
		},
		{
			name:         "malformed_json",
			method:       http.MethodPost,
			body:         `{"request":`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing_request_type",
			method:       http.MethodPost,
			body:         `{"version":"1.0","request":{"requestId":"r-1"}}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "launch",
			method:       http.MethodPost,
			body:         `{"version":"1.0","request":{"type":"LaunchRequest","requestId":"r-2"}}`,
			expectedCode: http.StatusOK,
			expectedText: "Welcome to the Weather Tool Skill. You can ask me about the weather.",
		},
		{
			name:         "weather_intent",
			method:       http.MethodPost,
			body:         intentBody("weatherIntent"),
			expectedCode: http.StatusOK,
			expectedText: "You triggered weather intent.",
		},
		{
			name:         "stop_intent",
			method:       http.MethodPost,
			body:         intentBody("AMAZON.StopIntent"),
			expectedCode: http.StatusOK,
			expectedText: "Goodbye!",
			endSession:   true,
		},
		{
			name:         "unknown_intent_reflected",
			method:       http.MethodPost,
			body:         intentBody("PizzaIntent"),
			expectedCode: http.StatusOK,
			expectedText: "You just triggered PizzaIntent.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := client.R().
				SetHeader("Content-Type", "application/json").
				SetBody(tc.body).
				Execute(tc.method, "/skill")
			require.NoError(t, err)
			assert.Equal(t, tc.expectedCode, resp.StatusCode())

			if tc.expectedCode != http.StatusOK {
				return
			}
			var body skillResponse
			require.NoError(t, json.Unmarshal(resp.Body(), &body))
			assert.Equal(t, "1.0", body.Version)
			assert.Equal(t, "PlainText", body.Response.OutputSpeech.Type)
			assert.Equal(t, tc.expectedText, body.Response.OutputSpeech.Text)
			assert.Equal(t, tc.endSession, body.Response.ShouldEndSession)
		})
	}

	records := recorder.all()
	require.Len(t, records, 4)
	assert.Equal(t, "launch", records[0].Kind)
	assert.Equal(t, "r-2", records[0].RequestID)
	assert.Equal(t, "unrecognized_intent", records[3].Kind)
	assert.Equal(t, "s-1", records[3].SessionID)
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.Failed)
	}
}

func TestSkill_AssignsRequestIDWhenMissing(t *testing.T) {
	recorder := &memRecorder{}
	srv := newTestServer(nil, recorder)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/skill",
		strings.NewReader(`{"version":"1.0","request":{"type":"SessionEndedRequest","reason":"USER_INITIATED"}}`))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	records := recorder.all()
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].RequestID)
	assert.Equal(t, "session_ended", records[0].Kind)
	assert.True(t, records[0].EndSession)
}
