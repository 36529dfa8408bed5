package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.IncrementRequests(true, 10)
	m.IncrementRequests(false, 30)
	m.IncrementRateLimited()
	m.IncrementMutation(true)
	m.IncrementMutation(false)
	m.IncrementSave(true)
	m.IncrementLoad(false)
	m.IncrementExport(true)
	m.IncrementDashboardView()
	m.IncrementWSConnection()
	m.IncrementWSMessageOut()

	s := m.Snapshot()
	if s.Requests.Total != 2 || s.Requests.Failed != 1 || s.Requests.AvgLatencyMs != 20 {
		t.Errorf("requisições %+v", s.Requests)
	}
	if s.Requests.RateLimited != 1 {
		t.Errorf("rate limited %d", s.Requests.RateLimited)
	}
	if s.Mutations.Applied != 1 || s.Mutations.Rejected != 1 {
		t.Errorf("mutações %+v", s.Mutations)
	}
	if s.Document.Saves != 1 || s.Document.Loads != 1 || s.Document.LoadErrors != 1 {
		t.Errorf("documento %+v", s.Document)
	}
	if s.Dashboard.Exports != 1 || s.Dashboard.Views != 1 {
		t.Errorf("painel %+v", s.Dashboard)
	}
	if s.WebSocket.Connections != 1 || s.WebSocket.MessagesOut != 1 {
		t.Errorf("websocket %+v", s.WebSocket)
	}
}

func TestTrackEndpointConcurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := 200
			if i%4 == 0 {
				status = 400
			}
			m.TrackEndpoint("/api/v1/frentes", "GET", status, 5)
		}(i)
	}
	wg.Wait()

	s := m.Snapshot()
	em := s.Endpoints["GET /api/v1/frentes"]
	if em.Requests != 20 || em.Errors != 5 || em.ErrorRate != 25 || em.AvgLatencyMs != 5 {
		t.Errorf("endpoint %+v", em)
	}
}

func TestHealthChecks(t *testing.T) {
	ctx := context.Background()
	if got := CheckDatabaseHealth(ctx, nil); got.Status != StatusUnhealthy {
		t.Errorf("banco nil: %+v", got)
	}
	if got := CheckDatabaseHealth(ctx, fakePinger{err: errors.New("recusado")}); got.Status != StatusUnhealthy {
		t.Errorf("banco com erro: %+v", got)
	}
	if got := CheckDatabaseHealth(ctx, fakePinger{}); got.Status != StatusHealthy {
		t.Errorf("banco ok: %+v", got)
	}

	dir := t.TempDir()
	if got := CheckDataFileHealth(filepath.Join(dir, "project_data.json")); got.Status != StatusDegraded {
		t.Errorf("arquivo ausente: %+v", got)
	}
	if got := CheckDataFileHealth(dir); got.Status != StatusUnhealthy {
		t.Errorf("diretório: %+v", got)
	}
	path := filepath.Join(dir, "ok.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := CheckDataFileHealth(path); got.Status != StatusHealthy {
		t.Errorf("arquivo presente: %+v", got)
	}

	if got := CheckMemoryHealth(1 << 20); got.Status != StatusHealthy {
		t.Errorf("memória: %+v", got)
	}
}

func TestDetermineOverallStatus(t *testing.T) {
	cases := []struct {
		components map[string]HealthStatus
		want       string
	}{
		{map[string]HealthStatus{"a": {Status: StatusHealthy}}, StatusHealthy},
		{map[string]HealthStatus{"a": {Status: StatusHealthy}, "b": {Status: StatusDegraded}}, StatusDegraded},
		{map[string]HealthStatus{"a": {Status: StatusDegraded}, "b": {Status: StatusUnhealthy}}, StatusUnhealthy},
		{map[string]HealthStatus{}, StatusHealthy},
	}
	for _, c := range cases {
		if got := DetermineOverallStatus(c.components); got != c.want {
			t.Errorf("DetermineOverallStatus(%v) = %s, esperado %s", c.components, got, c.want)
		}
	}
}
