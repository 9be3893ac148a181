package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chartPayload(timestamps []int64, closes []string) string {
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"timestamp": [%s],
				"indicators": {"quote": [{"close": [%s]}]}
			}],
			"error": null
		}
	}`, joinInt64(timestamps), strings.Join(closes, ","))
}

func joinInt64(vals []int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}

func TestGetMonthlyCloses_NSEListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "INFY.NS") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, chartPayload([]int64{1700000000, 1702600000}, []string{"1450.5", "1480.25"}))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	series, err := client.GetMonthlyCloses(context.Background(), "INFY")
	if err != nil {
		t.Fatalf("GetMonthlyCloses returned error: %v", err)
	}

	if series.Symbol != "INFY.NS" {
		t.Errorf("symbol = %q, want INFY.NS", series.Symbol)
	}
	if len(series.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series.Points))
	}
	if series.Points[1].Close != 1480.25 {
		t.Errorf("close = %v, want 1480.25", series.Points[1].Close)
	}
}

func TestGetMonthlyCloses_FallsBackToBSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ".NS") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, chartPayload([]int64{1700000000}, []string{"99.5"}))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	series, err := client.GetMonthlyCloses(context.Background(), "SCRIP")
	if err != nil {
		t.Fatalf("GetMonthlyCloses returned error: %v", err)
	}

	if series.Symbol != "SCRIP.BO" {
		t.Errorf("symbol = %q, want SCRIP.BO", series.Symbol)
	}
}

func TestGetMonthlyCloses_NullClosesSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartPayload([]int64{1700000000, 1702600000, 1705200000}, []string{"100.0", "null", "102.0"}))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	series, err := client.GetMonthlyCloses(context.Background(), "INFY")
	if err != nil {
		t.Fatalf("GetMonthlyCloses returned error: %v", err)
	}

	if len(series.Points) != 2 {
		t.Fatalf("expected null close to be skipped, got %d points", len(series.Points))
	}
}

func TestGetMonthlyCloses_BothListingsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	if _, err := client.GetMonthlyCloses(context.Background(), "NOSUCH"); err == nil {
		t.Fatal("expected error when both listings fail")
	}
}
