// Session lifecycle for one producer connection.
//
// One session runs per accepted connection for that connection's lifetime.
// State machine: Open -> ReadLoop -> Closed. A closed session is terminal;
// there is no resumption, producers reconnect and start fresh.

package handler

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"net"
	"sync"

	"github.com/xtxerr/beacon/internal/errors"
	"github.com/xtxerr/beacon/internal/logging"
	"github.com/xtxerr/beacon/internal/wire"
)

var log = logging.Component("session")

// =============================================================================
// Session
// =============================================================================

// Session handles one producer connection.
type Session struct {
	// Immutable after creation.
	ID      string
	conn    net.Conn
	w       *wire.Conn
	handler *Handler

	// shuttingDown reports the process-wide shutdown flag. Checked between
	// reads; a session blocked inside a read does not observe it until the
	// read returns.
	shuttingDown func() bool
}

// NewSession creates a session for an accepted connection.
func NewSession(conn net.Conn, h *Handler, shuttingDown func() bool) *Session {
	return &Session{
		ID:           newSessionID(),
		conn:         conn,
		w:            wire.NewConn(conn),
		handler:      h,
		shuttingDown: shuttingDown,
	}
}

// newSessionID generates a random session identifier.
func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

// Run executes the read loop until the peer disconnects, a fatal error
// occurs, or shutdown is observed before the next read. It always closes
// the connection before returning.
func (s *Session) Run() {
	defer s.conn.Close()

	remote := s.conn.RemoteAddr().String()
	log.Info("client connected", "session_id", s.ID, "remote", remote)

	for !s.shuttingDown() {
		pkt, err := s.w.ReadPacket()
		if err != nil {
			if isDisconnect(err) {
				log.Info("client disconnected", "session_id", s.ID, "remote", remote)
			} else {
				log.Error("read packet", "session_id", s.ID, "remote", remote, "error", err)
			}
			return
		}

		switch pkt.Type {
		case wire.TypeData:
			s.handleData(pkt)

		case wire.TypeStatistics:
			if !s.handleStatistics() {
				return
			}

		default:
			log.Warn("unknown packet type, ignoring", "session_id", s.ID, "type", int32(pkt.Type))
		}
	}

	log.Info("session closing on shutdown", "session_id", s.ID, "remote", remote)
}

// handleData persists one sample. Ingest failures are logged and absorbed;
// the loop continues to the next packet. No response is written.
func (s *Session) handleData(pkt *wire.Packet) {
	if pkt.Data == nil {
		log.Warn("DATA packet without payload, ignoring", "session_id", s.ID)
		return
	}

	if err := s.handler.IngestSample(pkt.Data); err != nil {
		log.Error("ingest failed", "session_id", s.ID, "error", err)
	}
}

// handleStatistics computes and writes a statistics response. Returns false
// when the session must terminate: no partial statistics response is
// meaningful, so any failure here is fatal to this session.
func (s *Session) handleStatistics() bool {
	resp, err := s.handler.CollectStatistics()
	if err != nil {
		log.Error("collect statistics", "session_id", s.ID, "error", err)
		return false
	}

	if err := s.w.WriteStatistics(resp); err != nil {
		log.Error("write statistics", "session_id", s.ID, "error", err)
		return false
	}
	return true
}

// isDisconnect reports whether a read error means the transport is gone
// rather than the payload being malformed.
func isDisconnect(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// =============================================================================
// Registry
// =============================================================================

// Registry tracks live sessions for the acceptor's shutdown join. It is an
// explicit object owned by the acceptor and handed to nothing else; there
// is no global session state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Spawn registers the session and runs it on its own goroutine.
func (r *Registry) Spawn(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.sessions, s.ID)
			r.mu.Unlock()
			r.wg.Done()
		}()
		s.Run()
	}()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Join blocks until every live session has exited its loop. A session
// blocked in a read with no traffic stalls the join until its peer
// disconnects; shutdown inherits that stall.
func (r *Registry) Join() {
	r.wg.Wait()
}
