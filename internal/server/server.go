// Package server serves the web UI, the WebSocket command channel and a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"bling-controller/internal/core"
)

// commandTimeout bounds how long a request waits for the agent to process a command.
const commandTimeout = 10 * time.Second

// maxCommandBytes caps the body of POST /api/command.
const maxCommandBytes = 4096

// Options wires the server to the rest of the agent. The callbacks are read on every
// new WebSocket client and status request; nil callbacks are skipped.
type Options struct {
	Port           string
	StaticFilesDir string
	AllowedOrigins []string

	Commands core.CommandChannel

	Status    func() Status
	Patterns  func() []string
	Colors    func() []string
	Segments  func() []string
	Schedules func() any
	Scripts   func() ([]string, error)

	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

// Server manages the HTTP and WebSocket services.
type Server struct {
	Hub        *Hub
	opts       Options
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// NewServer creates a server and starts its hub.
func NewServer(opts Options) *Server {
	hub := NewHub()
	go hub.Run()

	s := &Server{Hub: hub, opts: opts}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	mux := http.NewServeMux()
	if opts.StaticFilesDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.StaticFilesDir)))
	}
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("POST /api/command", s.handleCommand)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	s.httpServer = &http.Server{Addr: ":" + opts.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.Hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		// not a browser
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	log.Printf("[Server] WebSocket connection blocked: Origin '%s' not in allowed list", origin)
	return false
}

// dispatch hands cmd to the agent and waits for its reply.
func (s *Server) dispatch(ctx context.Context, cmd core.Command) (core.Result, error) {
	if s.opts.Commands == nil {
		return core.Result{}, errors.New("no command handler")
	}
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	select {
	case s.opts.Commands <- cmd:
	case <-ctx.Done():
		return core.Result{}, ctx.Err()
	}
	select {
	case res := <-cmd.Reply:
		return res, nil
	case <-ctx.Done():
		return core.Result{}, ctx.Err()
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	command := strings.TrimSpace(string(body))
	if command == "" {
		http.Error(w, "empty command", http.StatusBadRequest)
		return
	}

	res, err := s.dispatch(r.Context(), core.NewCommand(core.CmdProcess, map[string]any{"command": command}))
	if err != nil {
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
		return
	}
	writeJSON(w, resultFor(core.CmdProcess, res))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.opts.Status == nil {
		writeJSON(w, Status{})
		return
	}
	writeJSON(w, s.opts.Status())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] WebSocket upgrade error: %v", err)
		return
	}

	// Snapshot first; the hub only starts writing once the client is registered.
	for _, msg := range s.snapshot() {
		if err := write(conn, msg); err != nil {
			conn.Close()
			return
		}
	}

	s.Hub.add(conn)
	defer s.Hub.remove(conn)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				_ = s.Hub.Send(conn, CommandResult{Type: "error", Error: "invalid JSON"})
				continue
			}
			return
		}
		go s.handleClientMessage(r.Context(), conn, msg)
	}
}

func (s *Server) handleClientMessage(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	t := core.CommandType(msg.Type)
	if !t.Valid() {
		log.Printf("[Server] Unknown command type: %s", msg.Type)
		_ = s.Hub.Send(conn, CommandResult{Type: msg.Type, Error: "unknown command type"})
		return
	}

	res, err := s.dispatch(ctx, core.NewCommand(t, msg.Payload))
	if err != nil {
		res.Err = err
	}
	_ = s.Hub.Send(conn, resultFor(t, res))
}

func (s *Server) snapshot() []Message {
	var msgs []Message
	if s.opts.Status != nil {
		msgs = append(msgs, NewMessage("strip_status", s.opts.Status()))
	}
	if s.opts.Patterns != nil {
		msgs = append(msgs, NewMessage("pattern_list", s.opts.Patterns()))
	}
	if s.opts.Colors != nil {
		msgs = append(msgs, NewMessage("color_list", s.opts.Colors()))
	}
	if s.opts.Segments != nil {
		msgs = append(msgs, NewMessage("segment_list", s.opts.Segments()))
	}
	if s.opts.Status != nil {
		st := s.opts.Status()
		msgs = append(msgs, NewMessage("pattern_status", map[string]string{
			"running": st.Pattern,
			"command": st.Command,
			"status":  st.Status,
		}))
	}
	if s.opts.Schedules != nil {
		msgs = append(msgs, NewMessage("schedule_list", s.opts.Schedules()))
	}
	if s.opts.Scripts != nil {
		if scripts, err := s.opts.Scripts(); err == nil {
			msgs = append(msgs, NewMessage("script_list", scripts))
		} else {
			log.Printf("[Server] Could not list scripts: %v", err)
		}
	}
	return msgs
}

func resultFor(t core.CommandType, res core.Result) CommandResult {
	out := CommandResult{Type: string(t) + "_result", Status: res.Status, Data: res.Data}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] Failed to write response: %v", err)
	}
}
