package dashboard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/pawfam/internal/collab"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc := NewService(collab.NewClient(srv.URL, time.Second), slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return now }
	return svc
}

func TestReportFetchesWithCallerToken(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, bookingsPath, r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"_id":"b1","totalAmount":100,"createdAt":"2026-03-14T00:00:00Z","daycareCenter":{"name":"Sunny Paws"}},
			{"_id":"b2","totalAmount":50.25,"createdAt":"2026-01-01T00:00:00Z"}
		]`))
	})

	report := svc.Report(context.Background(), "user-token")

	assert.Equal(t, Stats{TotalBookings: 2, BookingsLastWeek: 1, TotalAmountSpent: 150.25, AmountSpentLastWeek: 100}, report.Stats)
	assert.Equal(t, []ProviderCount{{Name: "Sunny Paws", Bookings: 1}, {Name: UnknownCenter, Bookings: 1}}, report.CountByProvider)
}

func TestReportSwallowsCollaboratorFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token is not valid"}`))
	})

	report := svc.Report(context.Background(), "stale")

	assert.Equal(t, Stats{}, report.Stats)
	assert.Empty(t, report.AmountByProvider)
	assert.Empty(t, report.CountByProvider)
}
