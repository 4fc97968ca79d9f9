// Package observer exposes a loopback-only, read-only view of the registry:
// a JSON bootstrap plus a SUBSCRIBE/STATE websocket stream. Frames are
// published by the sim loop; the server never touches sim state directly.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reppie1986/MultiFloorStorageCombined/internal/protocol"
)

// Feed decouples the server from the sim loop: the loop publishes frames,
// connections read the latest one.
type Feed struct {
	frame atomic.Value // protocol.StateFrame
}

func (f *Feed) Publish(frame protocol.StateFrame) {
	f.frame.Store(frame)
}

func (f *Feed) Latest() (protocol.StateFrame, bool) {
	v := f.frame.Load()
	if v == nil {
		return protocol.StateFrame{}, false
	}
	return v.(protocol.StateFrame), true
}

type Server struct {
	bootstrap func() protocol.BootstrapResponse
	feed      *Feed
	log       *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(bootstrap func() protocol.BootstrapResponse, feed *Feed, logger *log.Logger) *Server {
	return &Server{
		bootstrap: bootstrap,
		feed:      feed,
		log:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only anyway
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.bootstrap())
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			s.closePolicy(conn, "bad subscribe")
			return
		}
		if sub.Type != protocol.TypeSubscribe || sub.ProtocolVersion != protocol.Version {
			s.closePolicy(conn, "expected SUBSCRIBE")
			return
		}
		_ = conn.SetReadDeadline(time.Time{})

		id := s.nextID.Add(1)
		if s.log != nil {
			s.log.Printf("observer %d subscribed (every_ticks=%d)", id, sub.EveryTicks)
		}

		// Drain (and ignore) client frames so pings/closes are processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		every := uint64(sub.EveryTicks)
		var lastSent uint64
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			frame, ok := s.feed.Latest()
			if !ok || frame.Tick == lastSent {
				continue
			}
			if every > 0 && lastSent != 0 && frame.Tick < lastSent+every {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if err := conn.WriteJSON(frame); err != nil {
				if s.log != nil {
					s.log.Printf("observer %d dropped: %v", id, err)
				}
				return
			}
			lastSent = frame.Tick
		}
	}
}

func (s *Server) closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second),
	)
}

func isLoopbackRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	host = strings.Trim(host, "[]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
