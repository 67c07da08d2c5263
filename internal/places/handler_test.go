package places

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"tablevote/internal/group"
	"tablevote/internal/llm"
)

func newTestHandlerEngine(t *testing.T, client *GoogleClient, summarizer llm.Summarizer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(client, summarizer)
	r := gin.New()
	restaurants := r.Group("/api/restaurants")
	{
		restaurants.POST("/search", handler.SearchRestaurants)
		restaurants.GET("/:place_id", handler.GetRestaurantDetails)
		restaurants.POST("/summarize", handler.SummarizeRestaurant)
	}
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchRestaurants(t *testing.T) {
	client := newFakeGoogle(t,
		func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.URL.RawQuery, "radius=1000") {
				t.Errorf("default radius not applied: %s", r.URL.RawQuery)
			}
			w.Write([]byte(searchBody))
		},
		func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(detailsBody)) },
	)
	r := newTestHandlerEngine(t, client, nil)

	w := doRequest(t, r, http.MethodPost, "/api/restaurants/search",
		`{"latitude": 35.68, "longitude": 139.76}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var candidates []group.Candidate
	if err := json.Unmarshal(w.Body.Bytes(), &candidates); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(candidates) != 1 || candidates[0].PlaceID != "p1" {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
}

func TestSearchRestaurants_MissingCoordinates(t *testing.T) {
	client := newFakeGoogle(t,
		func(w http.ResponseWriter, r *http.Request) { t.Error("search should not be called") },
		func(w http.ResponseWriter, r *http.Request) {},
	)
	r := newTestHandlerEngine(t, client, nil)

	w := doRequest(t, r, http.MethodPost, "/api/restaurants/search", `{"latitude": 35.68}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSearchRestaurants_UpstreamFailure(t *testing.T) {
	client := newFakeGoogle(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "REQUEST_DENIED"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)
	r := newTestHandlerEngine(t, client, nil)

	w := doRequest(t, r, http.MethodPost, "/api/restaurants/search",
		`{"latitude": 35.68, "longitude": 139.76}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetRestaurantDetails(t *testing.T) {
	client := newFakeGoogle(t,
		func(w http.ResponseWriter, r *http.Request) {},
		func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(fullDetailsBody)) },
	)
	r := newTestHandlerEngine(t, client, nil)

	w := doRequest(t, r, http.MethodGet, "/api/restaurants/p1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var c group.Candidate
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if c.Name != "Sushi Dai" {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.OpeningHours == nil || len(c.OpeningHours.WeekdayText) != 1 {
		t.Errorf("opening hours missing from response: %+v", c.OpeningHours)
	}
}

func TestGetRestaurantDetails_NotFound(t *testing.T) {
	client := newFakeGoogle(t,
		func(w http.ResponseWriter, r *http.Request) {},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "NOT_FOUND"}`))
		},
	)
	r := newTestHandlerEngine(t, client, nil)

	w := doRequest(t, r, http.MethodGet, "/api/restaurants/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

const summarizeBody = `{
	"restaurant_name": "Sushi Dai",
	"reviews": [
		{"author_name": "a", "rating": 5, "text": "1", "time": ""},
		{"author_name": "b", "rating": 4, "text": "2", "time": ""},
		{"author_name": "c", "rating": 5, "text": "3", "time": ""},
		{"author_name": "d", "rating": 3, "text": "4", "time": ""},
		{"author_name": "e", "rating": 4, "text": "5", "time": ""}
	]
}`

func TestSummarizeRestaurant(t *testing.T) {
	summarizer := &stubSummarizer{summary: "A beloved sushi counter."}
	r := newTestHandlerEngine(t, nil, summarizer)

	w := doRequest(t, r, http.MethodPost, "/api/restaurants/summarize", summarizeBody)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "A beloved sushi counter.") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
	if summarizer.calls != 1 {
		t.Errorf("expected 1 summarizer call, got %d", summarizer.calls)
	}
}

func TestSummarizeRestaurant_TooFewReviews(t *testing.T) {
	r := newTestHandlerEngine(t, nil, &stubSummarizer{summary: "x"})

	w := doRequest(t, r, http.MethodPost, "/api/restaurants/summarize",
		`{"restaurant_name": "Sushi Dai", "reviews": [{"author_name": "a", "rating": 5, "text": "1", "time": ""}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSummarizeRestaurant_NoBackend(t *testing.T) {
	r := newTestHandlerEngine(t, nil, nil)

	w := doRequest(t, r, http.MethodPost, "/api/restaurants/summarize", summarizeBody)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
}
