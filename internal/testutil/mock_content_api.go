// Package testutil provides a mock content API for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

const (
	ExperiencesPath = "/api/v1/experiences"
	ProjectsPath    = "/api/v1/portos"
)

// SampleExperiences is the experience list used across tests.
const SampleExperiences = `[
	{"title":"Engineer","location":"Remote","description":"Built stuff","start_date":"2022-01-01","end_date":null}
]`

// SampleProjects is a single page of projects.
const SampleProjects = `[
	{"title":"App","description":"d","tags":"web, api","image":"a.png","url":"http://x"}
]`

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockContentAPI is a configurable mock content API server.
type MockContentAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	experiences  string
	projectPages []string
	holds        map[int]chan struct{}

	// Tracking
	RequestCount      int
	ConditionalCount  int
	PageRequests      map[int]int
	LastRequestHeader http.Header
}

// NewMockContentAPI starts a mock content API. It serves an empty
// experience list and a single empty projects page until configured.
func NewMockContentAPI() *MockContentAPI {
	mock := &MockContentAPI{
		handlers:     make(map[string]http.HandlerFunc),
		experiences:  "[]",
		projectPages: []string{"[]"},
		holds:        make(map[int]chan struct{}),
		PageRequests: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		switch r.URL.Path {
		case ExperiencesPath:
			mock.serveExperiences(w, r)
		case ProjectsPath:
			mock.serveProjects(w, r)
		default:
			writeJSON(w, http.StatusNotFound, `{"success":false,"message":"not found"}`)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockContentAPI) URL() string {
	return m.server.URL
}

// Close releases held pages and shuts down the server.
func (m *MockContentAPI) Close() {
	m.mu.Lock()
	for page, ch := range m.holds {
		close(ch)
		delete(m.holds, page)
	}
	m.mu.Unlock()
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockContentAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.PageRequests = make(map[int]int)
	m.LastRequestHeader = nil
}

// SetExperiences sets the JSON array served as experience data.
func (m *MockContentAPI) SetExperiences(items string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.experiences = items
}

// SetProjectPages sets the JSON arrays served as project pages 1..n.
func (m *MockContentAPI) SetProjectPages(pages ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(pages) == 0 {
		pages = []string{"[]"}
	}
	m.projectPages = pages
}

// HoldPage makes requests for a projects page block until the returned
// release function is called.
func (m *MockContentAPI) HoldPage(page int) (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.holds[page] = ch
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.holds[page] == ch {
				delete(m.holds, page)
				close(ch)
			}
			m.mu.Unlock()
		})
	}
}

// SetHandler overrides the handler for a path.
func (m *MockContentAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockContentAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockContentAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockContentAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetPageRequests returns how often a projects page was requested.
func (m *MockContentAPI) GetPageRequests(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageRequests[page]
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockContentAPI) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader.Clone()
}

func (m *MockContentAPI) serveExperiences(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	items := m.experiences
	m.mu.RUnlock()

	writeJSON(w, http.StatusOK, Envelope(items))
}

func (m *MockContentAPI) serveProjects(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusUnprocessableEntity, `{"success":false,"message":"invalid page"}`)
			return
		}
		page = n
	}

	m.mu.Lock()
	m.PageRequests[page]++
	hold := m.holds[page]
	pages := m.projectPages
	m.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	items := "[]"
	if page <= len(pages) {
		items = pages[page-1]
	}

	writeJSON(w, http.StatusOK, ProjectPageEnvelope(items, len(pages)))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// Envelope wraps a JSON value in a successful response envelope.
func Envelope(data string) string {
	return fmt.Sprintf(`{"success":true,"data":%s}`, data)
}

// ProjectPageEnvelope wraps a page of projects with its last_page.
func ProjectPageEnvelope(items string, lastPage int) string {
	return Envelope(fmt.Sprintf(`{"data":%s,"last_page":%d}`, items, lastPage))
}

// NewHealthyResponse creates a 200 OK response with the given envelope body.
func NewHealthyResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "60",
			"X-RateLimit-Remaining": "59",
			"ETag":                  `"test-etag-123"`,
			"Cache-Control":         "max-age=300",
			"Content-Type":          "application/json",
		},
	}
}

// NewUnsuccessfulResponse creates a 200 OK response reporting success=false.
func NewUnsuccessfulResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"success":false,"message":"Data not found"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message":"Too Many Attempts."}`,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "60",
			"X-RateLimit-Remaining": "0",
			"Retry-After":           "30",
			"Content-Type":          "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"Server Error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewConditionalHandler answers 304 when If-None-Match equals etag and the
// full body otherwise.
func NewConditionalHandler(etag, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "max-age=1")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		writeJSON(w, http.StatusOK, body)
	}
}
