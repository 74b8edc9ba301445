package alpaca

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// FieldStore keeps the last published value of every field and streams
// updates to websocket clients.
type FieldStore struct {
	mu     sync.RWMutex
	cond   *sync.Cond
	fields map[string]Field
	seq    uint64
	now    func() time.Time
}

func NewFieldStore() *FieldStore {
	s := &FieldStore{
		fields: make(map[string]Field),
		now:    time.Now,
	}
	s.cond = sync.NewCond(s.mu.RLocker())
	return s
}

// Publish implements Publisher.
func (s *FieldStore) Publish(f Field) {
	s.mu.Lock()
	if f.Updated.IsZero() {
		f.Updated = s.now()
	}
	s.fields[f.ID] = f
	s.seq++
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Get returns the last published value of a field.
func (s *FieldStore) Get(id string) (Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[id]
	return f, ok
}

// All returns every field sorted by ID.
func (s *FieldStore) All() []Field {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *FieldStore) sortedLocked() []Field {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FieldHandler exposes a FieldStore and a FieldUpdater over HTTP.
type FieldHandler struct {
	store   *FieldStore
	updater FieldUpdater
	logger  log.FieldLogger
}

func NewFieldHandler(store *FieldStore, updater FieldUpdater, logger log.FieldLogger) *FieldHandler {
	return &FieldHandler{store: store, updater: updater, logger: logger}
}

func (h *FieldHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /fields", h.handleList)
	mux.HandleFunc("GET /fields/ws", h.handleStream)
	mux.HandleFunc("GET /fields/{id}", h.handleGet)
	mux.HandleFunc("PUT /fields/{id}", h.handleUpdate)
}

func (h *FieldHandler) handleList(w http.ResponseWriter, r *http.Request) {
	handleResponse(w, r, h.store.All())
}

func (h *FieldHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	f, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		handleError(w, r, ErrFieldNotFound)
		return
	}
	handleResponse(w, r, f)
}

// handleUpdate passes the form values of a PUT request to the updater.
func (h *FieldHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	params, err := parseBodyParams(r)
	if err != nil {
		handleError(w, r, invalidValue("error parsing form: %v", err))
		return
	}

	values := make(map[string]string, len(params))
	for k, v := range params {
		if len(v) > 0 && k != "ClientTransactionID" && k != "ClientID" {
			values[k] = v[0]
		}
	}

	id := r.PathValue("id")
	handled, err := h.updater.UpdateField(id, values)
	if !handled {
		handleError(w, r, ErrFieldNotFound)
		return
	}
	if err != nil {
		handleError(w, r, err)
		return
	}

	f, _ := h.store.Get(id)
	handleResponse(w, r, f)
}

// handleStream sends the full field set on connect, then every change.
func (h *FieldHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		// Drain client messages so close frames are processed.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		<-done
		// Waiters hold the read lock until Wait, so the write lock orders
		// this wakeup after their closed check.
		h.store.mu.Lock()
		h.store.cond.Broadcast()
		h.store.mu.Unlock()
	}()

	var seq uint64
	for {
		h.store.mu.RLock()
		for h.store.seq == seq && !isClosed(done) {
			h.store.cond.Wait()
		}
		seq = h.store.seq
		fields := h.store.sortedLocked()
		h.store.mu.RUnlock()

		if isClosed(done) {
			return
		}

		data, err := json.Marshal(fields)
		if err != nil {
			h.logger.Errorf("failed to encode fields: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debugf("websocket write failed: %v", err)
			return
		}
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
