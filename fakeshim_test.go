package goscidb

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// fakeShim is an in-process stand-in for the Shim HTTP bridge. It keeps the
// per session output buffer semantics the client relies on: execute_query
// stores bytes under the session, read_bytes hands them back, releasing the
// session drops them. Query output comes from the onQuery callback so each
// test decides what the server holds.
type fakeShim struct {
	// onQuery produces the bytes kept for read_bytes. A returned error makes
	// execute_query respond 406 with the error text, the way Shim reports
	// SciDB failures.
	onQuery func(query, save string) ([]byte, error)

	mu        sync.Mutex
	nextID    int
	nextQuery int
	sessions  map[string]*fakeSession
	queries   []string
	saves     []string
	releases  []string // release flag of each execute_query
	authUsers []string // user param of each execute_query
	canceled  []string
	uploads   map[string][]byte
}

type fakeSession struct {
	output   []byte
	released bool
}

func newFakeShim(t *testing.T, onQuery func(query, save string) ([]byte, error)) (*fakeShim, *httptest.Server) {
	fs := makeFakeShim(onQuery)
	srv := httptest.NewServer(fs.router())
	t.Cleanup(srv.Close)
	return fs, srv
}

// newFakeShimTLS serves the fake over TLS with the httptest self-signed
// certificate, mirroring a Shim install configured for scidb_auth.
func newFakeShimTLS(t *testing.T, onQuery func(query, save string) ([]byte, error)) (*fakeShim, *httptest.Server) {
	fs := makeFakeShim(onQuery)
	srv := httptest.NewTLSServer(fs.router())
	t.Cleanup(srv.Close)
	return fs, srv
}

func makeFakeShim(onQuery func(query, save string) ([]byte, error)) *fakeShim {
	return &fakeShim{
		onQuery:  onQuery,
		sessions: make(map[string]*fakeSession),
		uploads:  make(map[string][]byte),
	}
}

func (fs *fakeShim) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/version", fs.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/new_session", fs.handleNewSession).Methods(http.MethodGet)
	r.HandleFunc("/execute_query", fs.handleExecuteQuery).Methods(http.MethodGet)
	r.HandleFunc("/read_bytes", fs.handleReadBytes).Methods(http.MethodGet)
	r.HandleFunc("/release_session", fs.handleReleaseSession).Methods(http.MethodGet)
	r.HandleFunc("/cancel", fs.handleCancel).Methods(http.MethodGet)
	r.HandleFunc("/upload_file", fs.handleUploadFile).Methods(http.MethodPost)
	return r
}

// fakeShimDB opens a client against the test server.
func fakeShimDB(t *testing.T, srv *httptest.Server) *DB {
	return fakeShimDBConfig(t, srv, Config{})
}

// fakeShimDBConfig opens a client against the test server, keeping the
// supplied config fields. Host, port and protocol come from the server.
func fakeShimDBConfig(t *testing.T, srv *httptest.Server, cfg Config) *DB {
	u, err := url.Parse(srv.URL)
	assertNilF(t, err)
	port, err := strconv.Atoi(u.Port())
	assertNilF(t, err)
	cfg.Protocol = u.Scheme
	cfg.Host = u.Hostname()
	cfg.Port = port
	if cfg.Protocol == "https" {
		cfg.InsecureMode = true // httptest serves a self-signed certificate
	}
	db, err := OpenConfig(cfg)
	assertNilF(t, err)
	return db
}

func (fs *fakeShim) handleVersion(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "v1.3")
}

func (fs *fakeShim) handleNewSession(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := strconv.Itoa(fs.nextID)
	fs.nextID++
	fs.sessions[id] = &fakeSession{}
	fmt.Fprint(w, id)
}

// lookup returns the live session named by the request, or responds 404 the
// way Shim does for unknown and released sessions. Callers hold fs.mu.
func (fs *fakeShim) lookup(w http.ResponseWriter, r *http.Request) *fakeSession {
	id := r.URL.Query().Get("id")
	session := fs.sessions[id]
	if session == nil || session.released {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil
	}
	return session
}

func (fs *fakeShim) handleExecuteQuery(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	session := fs.lookup(w, r)
	if session == nil {
		fs.mu.Unlock()
		return
	}
	query := r.URL.Query().Get("query")
	save := r.URL.Query().Get("save")
	fs.queries = append(fs.queries, query)
	fs.saves = append(fs.saves, save)
	fs.releases = append(fs.releases, r.URL.Query().Get("release"))
	fs.authUsers = append(fs.authUsers, r.URL.Query().Get("user"))
	fs.mu.Unlock()

	// Run the query callback outside the lock so a blocking query does not
	// stall /cancel.
	var output []byte
	if fs.onQuery != nil {
		var err error
		output, err = fs.onQuery(query, save)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotAcceptable)
			return
		}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if save != "" {
		session.output = output
	}
	if r.URL.Query().Get("release") == "1" {
		session.released = true
	}
	fs.nextQuery++
	fmt.Fprintf(w, "0.%d", fs.nextQuery)
}

func (fs *fakeShim) handleReadBytes(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	session := fs.lookup(w, r)
	if session == nil {
		return
	}
	w.Write(session.output)
}

func (fs *fakeShim) handleReleaseSession(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	session := fs.lookup(w, r)
	if session == nil {
		return
	}
	session.released = true
}

func (fs *fakeShim) handleCancel(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.canceled = append(fs.canceled, r.URL.Query().Get("id"))
}

func (fs *fakeShim) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	session := fs.lookup(w, r)
	if session == nil {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fs.uploads[header.Filename] = data
	fmt.Fprintf(w, "/tmp/shim/%s", header.Filename)
}

func (fs *fakeShim) executedQueries() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.queries...)
}

func (fs *fakeShim) executedSaves() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.saves...)
}

func (fs *fakeShim) executedReleases() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.releases...)
}

func (fs *fakeShim) executedAuthUsers() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.authUsers...)
}

func (fs *fakeShim) canceledSessions() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.canceled...)
}

func (fs *fakeShim) uploadedData(name string) []byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.uploads[name]
}

func (fs *fakeShim) liveSessions() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	live := 0
	for _, session := range fs.sessions {
		if !session.released {
			live++
		}
	}
	return live
}
