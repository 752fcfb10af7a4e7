package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, srv.URL, "test-key", nil)
	return srv, c
}

func TestCurrent_QueryParams(t *testing.T) {
	var got url.Values
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"main":{"temp":31.2}}`))
	})

	payload, err := c.Current(context.Background(), "Dhaka,BD")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if string(payload) != `{"main":{"temp":31.2}}` {
		t.Fatalf("unexpected payload: %s", payload)
	}
	if got.Get("q") != "Dhaka,BD" || got.Get("units") != "metric" || got.Get("appid") != "test-key" {
		t.Fatalf("unexpected query: %v", got)
	}
}

func TestCurrent_NonEnglishCityPassesThrough(t *testing.T) {
	var got string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("q")
		w.Write([]byte(`{}`))
	})

	if _, err := c.Current(context.Background(), "ঢাকা"); err != nil {
		t.Fatalf("current: %v", err)
	}
	if got != "ঢাকা" {
		t.Fatalf("city name mangled: %q", got)
	}
}

func TestHistory_ISOToEpoch(t *testing.T) {
	var got url.Values
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	start := time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 9, 12, 30, 0, 0, time.UTC)
	_, err := c.History(context.Background(), "Dhaka,BD", "2025-05-08T00:00:00Z", "2025-05-09T12:30:00Z")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if got.Get("start") != strconv.FormatInt(start.Unix(), 10) {
		t.Fatalf("start not converted: %q", got.Get("start"))
	}
	if got.Get("end") != strconv.FormatInt(end.Unix(), 10) {
		t.Fatalf("end not converted: %q", got.Get("end"))
	}
	if got.Get("type") != "hour" {
		t.Fatalf("expected type=hour, got %q", got.Get("type"))
	}
}

func TestHistory_DateOnlyIsMidnightUTC(t *testing.T) {
	var got url.Values
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	if _, err := c.History(context.Background(), "Dhaka,BD", "2025-05-08", ""); err != nil {
		t.Fatalf("history: %v", err)
	}
	want := time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC).Unix()
	if got.Get("start") != strconv.FormatInt(want, 10) {
		t.Fatalf("date-only start mishandled: %q", got.Get("start"))
	}
}

func TestHistory_OmitsAbsentRange(t *testing.T) {
	var got url.Values
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	if _, err := c.History(context.Background(), "Dhaka,BD", "", ""); err != nil {
		t.Fatalf("history: %v", err)
	}
	if got.Has("start") || got.Has("end") {
		t.Fatalf("absent range must be omitted, got %v", got)
	}
}

func TestHistory_BadTimestamp(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := c.History(context.Background(), "Dhaka,BD", "yesterday", "")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestGet_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, tt.handler)
			_, err := c.Current(context.Background(), "Nowhere")
			if !errors.Is(err, ErrDataUnavailable) {
				t.Fatalf("expected ErrDataUnavailable, got %v", err)
			}
		})
	}
}
