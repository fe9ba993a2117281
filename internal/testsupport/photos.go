package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// PhotoServer imitates the Unsplash search and CDN endpoints. Each query maps
// to an ordered list of payloads, one per result page.
type PhotoServer struct {
	*httptest.Server

	mu        sync.Mutex
	pages     map[string][][]byte
	searches  int
	downloads int
	status    int
}

// NewPhotoServer starts a server that is closed with the test.
func NewPhotoServer(t testing.TB) *PhotoServer {
	t.Helper()
	ps := &PhotoServer{pages: make(map[string][][]byte)}
	mux := http.NewServeMux()
	mux.HandleFunc("/search/photos", ps.search)
	mux.HandleFunc("/photos/", ps.download)
	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

// Add appends result pages for query.
func (ps *PhotoServer) Add(query string, payloads ...[]byte) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.pages[query] = append(ps.pages[query], payloads...)
}

// FailWith makes every search answer with status.
func (ps *PhotoServer) FailWith(status int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.status = status
}

// Searches returns the number of search requests served.
func (ps *PhotoServer) Searches() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.searches
}

// Downloads returns the number of download requests served.
func (ps *PhotoServer) Downloads() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.downloads
}

func (ps *PhotoServer) search(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	ps.searches++
	status := ps.status
	query := r.URL.Query().Get("query")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	available := len(ps.pages[query])
	ps.mu.Unlock()

	if status != 0 {
		http.Error(w, "upstream failure", status)
		return
	}
	type photo struct {
		ID   string            `json:"id"`
		URLs map[string]string `json:"urls"`
	}
	body := struct {
		Total   int     `json:"total"`
		Results []photo `json:"results"`
	}{Total: available, Results: []photo{}}
	if page >= 1 && page <= available {
		id := fmt.Sprintf("%s-%d", strings.ReplaceAll(query, " ", "-"), page)
		body.Results = append(body.Results, photo{
			ID:   id,
			URLs: map[string]string{"regular": ps.URL + "/photos/" + strconv.Itoa(page) + "?q=" + url.QueryEscape(query)},
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (ps *PhotoServer) download(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/photos/"))
	query := r.URL.Query().Get("q")

	ps.mu.Lock()
	ps.downloads++
	payloads := ps.pages[query]
	ps.mu.Unlock()

	if err != nil || page < 1 || page > len(payloads) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(payloads[page-1])
}
