package main

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/nickyhof/PlaygroundDB"
	"github.com/nickyhof/PlaygroundDB/core"
	"github.com/nickyhof/PlaygroundDB/db"
)

// DefaultProject is used by requests that do not name a project.
const DefaultProject = "demo"

// maxLineSize bounds a single request line.
const maxLineSize = 4 << 20

// Server is a TCP SQL server that runs scripts against PlaygroundDB projects.
type Server struct {
	listener   net.Listener
	instance   *PlaygroundDB.Instance
	identity   core.Identity
	authConfig *AuthConfig
	tlsEnabled bool

	// Project is the project of requests that do not name one.
	Project string

	done  chan struct{}
	wg    sync.WaitGroup
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer creates a server that commits as identity.
func NewServer(instance *PlaygroundDB.Instance, identity core.Identity) *Server {
	return &Server{
		instance: instance,
		identity: identity,
		Project:  DefaultProject,
		done:     make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}
}

// NewServerWithAuth creates a server where every connection has to
// authenticate, and commits carry the authenticated identity.
func NewServerWithAuth(instance *PlaygroundDB.Instance, authConfig *AuthConfig) *Server {
	server := NewServer(instance, core.Identity{})
	server.authConfig = authConfig
	return server
}

// Start begins listening for connections on the specified address.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	log.Printf("SQL Server listening on %s", listener.Addr())

	go s.acceptLoop()
	return nil
}

// StartTLS is Start with TLS using the given certificate and key files.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	listener, err := tls.Listen("tcp", addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.listener = listener
	s.tlsEnabled = true

	log.Printf("SQL Server listening on %s (TLS)", listener.Addr())

	go s.acceptLoop()
	return nil
}

// TLSEnabled reports whether the server was started with StartTLS.
func (s *Server) TLSEnabled() bool {
	return s.tlsEnabled
}

func (s *Server) authRequired() bool {
	return s.authConfig != nil && s.authConfig.Enabled
}

// Stop closes the listener and open connections and waits for in-flight
// requests to finish.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}

		if !s.track(conn) {
			conn.Close()
			return
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// track registers an open connection. It fails once Stop has begun.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conns, conn)
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	log.Printf("Client connected: %s", conn.RemoteAddr())

	state := &ConnectionState{}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if lower == "quit" || lower == "exit" {
			log.Printf("Client disconnected: %s", conn.RemoteAddr())
			return
		}

		var response Response
		if strings.HasPrefix(strings.ToUpper(line), "AUTH ") {
			response = s.handleAuth(line, state)
		} else {
			response = s.handleRequest([]byte(line), state)
		}

		data, err := EncodeResponse(response)
		if err != nil {
			log.Printf("Failed to encode response: %v", err)
			continue
		}

		if _, err := conn.Write(data); err != nil {
			log.Printf("Write error to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		log.Printf("Read error from %s: %v", conn.RemoteAddr(), err)
	}
}

// handleRequest runs one request with the connection's identity.
func (s *Server) handleRequest(line []byte, state *ConnectionState) Response {
	identity := s.identity
	if s.authRequired() {
		if !state.IsAuthenticated() {
			return Response{
				Success: false,
				Error:   "authentication required: send AUTH JWT <token>",
			}
		}
		identity = *state.Identity()
	}

	req, err := DecodeRequest(line)
	if err != nil {
		return Response{
			Success: false,
			Error:   fmt.Sprintf("invalid request: %v", err),
		}
	}

	project := req.Project
	if project == "" {
		project = s.Project
	}

	result, err := s.instance.Execute(project, identity, req.Query)
	if err != nil {
		return Response{
			Success: false,
			Error:   err.Error(),
		}
	}

	return resultResponse(result)
}

// resultResponse wraps an ExecuteResult. The response fails when any
// statement failed, and carries the first failure message.
func resultResponse(result db.ExecuteResult) Response {
	data, err := json.Marshal(result)
	if err != nil {
		return Response{
			Success: false,
			Error:   fmt.Sprintf("failed to encode result: %v", err),
		}
	}

	response := Response{
		Success: true,
		Type:    "result",
		Result:  data,
	}
	for _, statement := range result.Results {
		if !statement.Success {
			response.Success = false
			response.Error = statement.Error
			break
		}
	}
	return response
}
