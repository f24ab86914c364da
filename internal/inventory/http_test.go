package inventory_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alex-user-go/rateengine/internal/inventory"
)

func newClient(t *testing.T, h http.Handler, cache inventory.Cache) *inventory.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return inventory.NewClient(inventory.ClientConfig{
		BaseURL:       srv.URL,
		Credentials:   inventory.Credentials{AgentID: "agent", Password: "secret"},
		Timeout:       2 * time.Second,
		CredentialTTL: time.Minute,
	}, cache)
}

func TestClient_DateRanges_SingleObject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /dateranges", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Agent-Id") != "agent" {
			t.Errorf("X-Agent-Id = %q, want agent", r.Header.Get("X-Agent-Id"))
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("expected X-Request-Id to be set")
		}
		var q inventory.DateRangeQuery
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if q.OptionID != "OPT1" || q.Units != 5 {
			t.Errorf("query = %+v", q)
		}
		_, _ = w.Write([]byte(`{"date_ranges":{"start_date":"2025-04-01","end_date":"2025-04-10","room_rates":{"room_type":"DB","price":100}}}`))
	})

	c := newClient(t, mux, nil)
	got, err := c.DateRanges(context.Background(), inventory.DateRangeQuery{OptionID: "OPT1", Date: "2025-04-01", Units: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d date ranges, want 1", len(got))
	}
	if got[0].EndDate != "2025-04-10" {
		t.Errorf("EndDate = %q, want 2025-04-10", got[0].EndDate)
	}
	if len(got[0].RoomRates) != 1 || got[0].RoomRates[0].Price != 100 {
		t.Errorf("RoomRates = %+v", got[0].RoomRates)
	}
}

func TestClient_DateRanges_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /dateranges", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	c := newClient(t, mux, nil)
	got, err := c.DateRanges(context.Background(), inventory.DateRangeQuery{OptionID: "OPT1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}

func TestClient_Quotes_ConvertFlag(t *testing.T) {
	tests := []struct {
		name            string
		displaySupplier bool
		wantConvert     string
	}{
		{name: "supplier currency", displaySupplier: true, wantConvert: "N"},
		{name: "requester currency", displaySupplier: false, wantConvert: "Y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /quotes", func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if body["convert"] != tt.wantConvert {
					t.Errorf("convert = %v, want %s", body["convert"], tt.wantConvert)
				}
				_, _ = w.Write([]byte(`{"quotes":[{"rate_id":"R1","total_price":1000},{"rate_id":"R2","total_price":2000}]}`))
			})

			c := newClient(t, mux, nil)
			got, err := c.Quotes(context.Background(), inventory.QuoteQuery{OptionID: "OPT1", Units: 2, DisplaySupplierCurrency: tt.displaySupplier})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("got %d quotes, want 2", len(got))
			}
		})
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantTarget error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantTarget: inventory.ErrUpstream},
		{name: "unauthorized", status: http.StatusUnauthorized, body: "", wantTarget: inventory.ErrInvalidCredentials},
		{name: "malformed body", status: http.StatusOK, body: "{not json", wantTarget: inventory.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /options/{id}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			c := newClient(t, mux, nil)
			_, err := c.Option(context.Background(), "OPT1")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantTarget) {
				t.Errorf("error = %v, want %v", err, tt.wantTarget)
			}
			var upstreamErr *inventory.Error
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("expected *inventory.Error, got %T", err)
			}
			if upstreamErr.Op != "option" {
				t.Errorf("Op = %q, want option", upstreamErr.Op)
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	c := inventory.NewClient(inventory.ClientConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)
	_, err := c.Option(context.Background(), "OPT1")
	if !errors.Is(err, inventory.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if !errors.Is(err, inventory.ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream", err)
	}
}

// mapCache is a minimal in-test Cache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (m *mapCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.entries[key]; ok {
		return v, true, nil
	}
	v, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	m.entries[key] = v
	return v, false, nil
}

func TestClient_CheckCredentials(t *testing.T) {
	tests := []struct {
		name    string
		valid   bool
		wantErr error
	}{
		{name: "valid", valid: true},
		{name: "rejected", valid: false, wantErr: inventory.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("POST /auth/check", func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_ = json.NewEncoder(w).Encode(map[string]bool{"valid": tt.valid})
			})

			c := newClient(t, mux, &mapCache{entries: map[string][]byte{}})
			for i := 0; i < 3; i++ {
				err := c.CheckCredentials(context.Background())
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CheckCredentials() error = %v, want %v", err, tt.wantErr)
				}
			}
			if got := calls.Load(); got != 1 {
				t.Errorf("upstream called %d times, want 1 (cached)", got)
			}
		})
	}
}
