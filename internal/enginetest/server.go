// Package enginetest runs a fake processing engine over real HTTP and
// websocket transports, so the reconciliation core can be exercised end to
// end without the engine binary.
package enginetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"clipstudio/internal/domain"
)

// Server is a scriptable fake engine. Tests set the active-job list and
// snapshot, and push event frames to all connected clients.
type Server struct {
	httpServer *httptest.Server
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	active   []domain.JobUpdate
	snapshot snapshotBody
	clients  map[*websocket.Conn]struct{}
}

type snapshotBody struct {
	Jobs     []domain.JobUpdate     `json:"jobs"`
	Projects []domain.ProjectUpdate `json:"projects"`
}

type eventFrame struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// NewServer starts the fake engine on an ephemeral port.
func NewServer() *Server {
	s := &Server{
		clients: make(map[*websocket.Conn]struct{}),
	}

	r := chi.NewRouter()
	r.Get("/v1/jobs/active", s.handleActiveJobs)
	r.Get("/v1/snapshot", s.handleSnapshot)
	r.Get("/v1/events", s.handleEvents)

	s.httpServer = httptest.NewServer(r)
	return s
}

// URL is the HTTP base URL of the fake engine.
func (s *Server) URL() string { return s.httpServer.URL }

// EventsURL is the websocket endpoint of the fake engine.
func (s *Server) EventsURL() string {
	return strings.Replace(s.httpServer.URL, "http://", "ws://", 1) + "/v1/events"
}

// SetActive replaces the active-job list returned by the poll endpoint.
func (s *Server) SetActive(jobs ...domain.JobUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = append([]domain.JobUpdate(nil), jobs...)
}

// SetSnapshot replaces the snapshot returned by the seed endpoint.
func (s *Server) SetSnapshot(jobs []domain.JobUpdate, projects []domain.ProjectUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshotBody{Jobs: jobs, Projects: projects}
}

// PushJob broadcasts a job event frame to every connected client.
func (s *Server) PushJob(u domain.JobUpdate) {
	s.broadcast(eventFrame{Kind: "job", Payload: u})
}

// PushProject broadcasts a project event frame to every connected client.
func (s *Server) PushProject(u domain.ProjectUpdate) {
	s.broadcast(eventFrame{Kind: "project", Payload: u})
}

// PushRaw broadcasts an arbitrary frame, for malformed-message tests.
func (s *Server) PushRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// ClientCount reports how many event link clients are connected.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// DropClients force-closes all event link connections, simulating an
// unexpected remote close. The HTTP endpoints stay up.
func (s *Server) DropClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
}

// Close shuts the fake engine down.
func (s *Server) Close() {
	s.DropClients()
	s.httpServer.Close()
}

func (s *Server) broadcast(frame eventFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.PushRaw(data)
}

func (s *Server) handleActiveJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	jobs := append([]domain.JobUpdate(nil), s.active...)
	s.mu.Unlock()
	writeJSON(w, map[string]any{"jobs": jobs})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body := s.snapshot
	s.mu.Unlock()
	writeJSON(w, body)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// Drain client frames until the connection dies, then unregister.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
