package dataforseo

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:           srv.URL,
		Login:             "login",
		Password:          "password",
		RequestsPerSecond: 1000,
	}, nil)
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient(Config{}, nil)

	if c.Configured() {
		t.Error("Configured() = true for empty credentials")
	}

	_, err := c.FetchSerp(context.Background(), SerpRequest{Keyword: "test"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("FetchSerp error = %v, want ErrNotConfigured", err)
	}

	_, err = c.Balance(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Balance error = %v, want ErrNotConfigured", err)
	}
}

func TestClientBasicAuth(t *testing.T) {
	var gotAuth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"status_code":20000,"tasks":[{"status_code":20000,"result":[{"keyword":"k","items":[]}]}]}`))
	})

	if _, err := c.FetchSerp(context.Background(), SerpRequest{Keyword: "k"}); err != nil {
		t.Fatalf("FetchSerp: %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("login:password"))
	if gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}
}

func TestFetchSerpParsesItems(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/serp/google/organic/live/advanced" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"status_code": 20000,
			"tasks": [{
				"status_code": 20000,
				"cost": 0.003,
				"result": [{
					"keyword": "math tutors",
					"check_url": "https://google.com/search?q=math+tutors",
					"items": [
						{"type": "paid", "rank_absolute": 1, "domain": "ads.example.com"},
						{"type": "organic", "rank_group": 1, "rank_absolute": 2, "domain": "example.com", "title": "Example", "url": "https://example.com"}
					]
				}]
			}]
		}`))
	})

	snapshot, err := c.FetchSerp(context.Background(), SerpRequest{Keyword: "math tutors"})
	if err != nil {
		t.Fatalf("FetchSerp: %v", err)
	}

	if snapshot.Keyword != "math tutors" {
		t.Errorf("keyword = %q", snapshot.Keyword)
	}
	if len(snapshot.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(snapshot.Items))
	}
	if snapshot.Items[1].Type != "organic" || snapshot.Items[1].Domain != "example.com" {
		t.Errorf("unexpected second item: %+v", snapshot.Items[1])
	}
	if snapshot.Cost != 0.003 {
		t.Errorf("cost = %v, want 0.003", snapshot.Cost)
	}
	if len(snapshot.Raw) == 0 {
		t.Error("raw payload not retained")
	}
}

func TestProviderErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status_code":40101,"status_message":"Authentication failed"}`))
	})

	_, err := c.FetchSerp(context.Background(), SerpRequest{Keyword: "k"})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if provErr.StatusCode != 40101 {
		t.Errorf("status code = %d, want 40101", provErr.StatusCode)
	}
	if provErr.Message != "Authentication failed" {
		t.Errorf("message = %q", provErr.Message)
	}
}

func TestTaskErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status_code":20000,"tasks":[{"status_code":40501,"status_message":"Invalid Field"}]}`))
	})

	_, err := c.FetchSerp(context.Background(), SerpRequest{Keyword: "k"})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if provErr.StatusCode != 40501 {
		t.Errorf("status code = %d, want 40501", provErr.StatusCode)
	}
}

func TestBalance(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appendix/user_data" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"status_code":20000,"tasks":[{"status_code":20000,"result":[{"login":"login","money":{"balance":42.5}}]}]}`))
	})

	balance, err := c.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.Balance != 42.5 {
		t.Errorf("balance = %v, want 42.5", balance.Balance)
	}
}

func TestKeywordIdeasSeedLimit(t *testing.T) {
	c := NewClient(Config{Login: "l", Password: "p"}, nil)

	seeds := make([]string, KeywordsLiveLimit+1)
	for i := range seeds {
		seeds[i] = "kw"
	}

	if _, err := c.KeywordIdeas(context.Background(), seeds, 2840, "en"); err == nil {
		t.Error("expected error for seed list over the live limit")
	}
}

func TestComputeTrends(t *testing.T) {
	history := []MonthlySearch{
		{Year: 2025, Month: 8, SearchVolume: 1200},
		{Year: 2025, Month: 7, SearchVolume: 1100},
		{Year: 2025, Month: 6, SearchVolume: 1000},
		{Year: 2025, Month: 5, SearchVolume: 800},
		{Year: 2025, Month: 4, SearchVolume: 900},
		{Year: 2025, Month: 3, SearchVolume: 900},
		{Year: 2025, Month: 2, SearchVolume: 850},
		{Year: 2025, Month: 1, SearchVolume: 700},
		{Year: 2024, Month: 12, SearchVolume: 600},
		{Year: 2024, Month: 11, SearchVolume: 650},
		{Year: 2024, Month: 10, SearchVolume: 500},
		{Year: 2024, Month: 9, SearchVolume: 1000},
	}

	threeMonth, yearly := ComputeTrends(history)

	// Three-month: 1200 vs 1000 (June) = +20%.
	if threeMonth == nil || *threeMonth != 20 {
		t.Errorf("threeMonth = %v, want 20", threeMonth)
	}
	// Yearly: 1200 vs 1000 (Sep 2024) = +20%.
	if yearly == nil || *yearly != 20 {
		t.Errorf("yearly = %v, want 20", yearly)
	}
}

func TestComputeTrendsInsufficientHistory(t *testing.T) {
	history := []MonthlySearch{
		{Year: 2025, Month: 8, SearchVolume: 1200},
		{Year: 2025, Month: 7, SearchVolume: 1100},
	}

	threeMonth, yearly := ComputeTrends(history)
	if threeMonth != nil {
		t.Errorf("threeMonth = %v, want nil for short history", threeMonth)
	}
	if yearly != nil {
		t.Errorf("yearly = %v, want nil for short history", yearly)
	}
}

func TestComputeTrendsThreeMonthWindow(t *testing.T) {
	history := []MonthlySearch{
		{Year: 2025, Month: 6, SearchVolume: 100},
		{Year: 2025, Month: 7, SearchVolume: 150},
		{Year: 2025, Month: 8, SearchVolume: 200},
	}

	threeMonth, yearly := ComputeTrends(history)

	// Exactly three months of history is enough: 200 vs 100 = +100%.
	if threeMonth == nil || *threeMonth != 100 {
		t.Errorf("threeMonth = %v, want 100", threeMonth)
	}
	if yearly != nil {
		t.Errorf("yearly = %v, want nil for short history", yearly)
	}
}

func TestComputeTrendsZeroDenominator(t *testing.T) {
	history := make([]MonthlySearch, 12)
	for i := range history {
		history[i] = MonthlySearch{Year: 2025, Month: i + 1, SearchVolume: 100}
	}
	history[9] = MonthlySearch{Year: 2025, Month: 10, SearchVolume: 0} // three-month baseline

	threeMonth, _ := ComputeTrends(history)
	if threeMonth != nil {
		t.Errorf("threeMonth = %v, want nil when past volume is zero", threeMonth)
	}
}
