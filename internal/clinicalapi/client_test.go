package clinicalapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v1/", 2*time.Second, 0, zap.NewNop())
}

func TestClient_ListAppointments(t *testing.T) {
	var gotUser, gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get(HeaderUserID)
		gotAuth = r.Header.Get(HeaderAuthorization)
		gotPath = r.URL.Path
		w.Write([]byte(`[
			{"id": 7, "datetime": "2025-03-03T09:00:00Z", "mode": "online", "patient": {"id": 1, "name": "Ana"}},
			{"id": "x-8", "datetime": "2025-03-03T14:00:00Z", "mode": "inperson"},
			{"id": 9, "datetime": 12345}
		]`))
	})

	appts, err := client.ListAppointments(context.Background(), Credentials{UserID: "42", Token: "tok"})
	require.NoError(t, err)

	assert.Equal(t, "42", gotUser)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/api/v1/appointments", gotPath)

	// the record with a numeric datetime is skipped, not fatal
	require.Len(t, appts, 2)
	assert.Equal(t, ID("7"), appts[0].ID)
	assert.Equal(t, ID("1"), appts[0].Patient.ID)
	assert.Equal(t, "Ana", appts[0].Patient.Name)
	assert.Equal(t, ID("x-8"), appts[1].ID)
	assert.Nil(t, appts[1].Patient)
}

func TestClient_ListConsultations_KeepsRawSummary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "patient_id": 3, "status": "pending", "created_at": "2025-03-01T10:00:00Z",
			 "ai_summary": {"overallAssessment": "stable"}, "risk_assessment": {"risk_level": "red"}, "message_count": 4}
		]`))
	})

	items, err := client.ListConsultations(context.Background(), Credentials{UserID: "9"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, ID("1"), items[0].ID)
	assert.Equal(t, ID("3"), items[0].PatientID)
	assert.JSONEq(t, `{"overallAssessment": "stable"}`, string(items[0].AISummary))
	assert.JSONEq(t, `{"risk_level": "red"}`, string(items[0].RiskAssessment))
	require.NotNil(t, items[0].MessageCount)
	assert.Equal(t, 4, *items[0].MessageCount)
	assert.Nil(t, items[0].UpdatedAt)
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"server error", http.StatusInternalServerError, ErrUnexpectedStatus},
		{"not found", http.StatusNotFound, ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail":"nope"}`))
			})

			_, err := client.ListConsultations(context.Background(), Credentials{UserID: "1"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_DecodeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	})

	_, err := client.ListAppointments(context.Background(), Credentials{UserID: "1"})
	assert.ErrorIs(t, err, ErrDecodeResponse)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, 0, zap.NewNop())
	_, err := client.ListAppointments(context.Background(), Credentials{UserID: "1"})
	assert.ErrorIs(t, err, ErrSendRequest)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestClient_RateLimitWaitIsBoundedByTimeout(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	// 2 rps gives a burst of 2; the next slot is 500ms away, past the timeout
	client := NewClient(srv.URL, 100*time.Millisecond, 2, zap.NewNop())
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.ListConsultations(ctx, Credentials{UserID: "1"})
		require.NoError(t, err)
	}

	start := time.Now()
	for i := 0; i < 40; i++ {
		_, err := client.ListConsultations(ctx, Credentials{UserID: "1"})
		assert.ErrorIs(t, err, ErrSendRequest)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	}
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, int32(2), hits.Load())
}

func TestID_UnmarshalJSON(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12, "b": "abc", "c": null}`), &v))
	assert.Equal(t, ID("12"), v.A)
	assert.Equal(t, ID("abc"), v.B)
	assert.Equal(t, ID(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}
