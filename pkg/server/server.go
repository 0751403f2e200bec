// Package server implements the chat relay server: the per-connection
// session state machine, the shared client registry, and broadcast/unicast
// delivery.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/akramer/linechat/pkg/collab"
	"github.com/akramer/linechat/pkg/crypto"
	"github.com/akramer/linechat/pkg/datastore"
)

// Dependencies holds the external collaborators the core calls but does not
// implement. Auth is required; everything else may be nil and is then
// skipped or replaced with a no-op.
type Dependencies struct {
	Auth        collab.Authenticator
	Translator  collab.Translator
	Transcriber collab.Transcriber
	Keywords    collab.KeywordDetector
	History     collab.HistorySink
	Store       datastore.MessageStore
	Objects     collab.ObjectStore

	// Cipher transforms rendered chat lines when a session enables
	// encryption. Nil disables the /encrypt command.
	Cipher crypto.LineCipher
}

// Server is the chat relay server.
type Server struct {
	cfg      Config
	deps     Dependencies
	registry *Registry
	router   *Router
	journal  *Journal
	metrics  *Metrics

	ln     net.Listener
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	if deps.Translator == nil {
		deps.Translator = collab.NopTranslator{}
	}
	if deps.Transcriber == nil {
		deps.Transcriber = collab.NopTranscriber{}
	}
	if deps.Keywords == nil {
		deps.Keywords = collab.NewPatternKeywordDetector(nil)
	}

	metrics := NewMetrics()
	registry := NewRegistry()
	journal := NewJournal(deps.History, deps.Store, deps.Objects)

	return &Server{
		cfg:      cfg,
		deps:     deps,
		registry: registry,
		router:   NewRouter(registry, journal, metrics),
		journal:  journal,
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Registry returns the client registry.
func (s *Server) Registry() *Registry { return s.registry }

// Router returns the message router.
func (s *Server) Router() *Router { return s.router }

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Addr returns the bound listener address, valid after Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start binds the listener and launches the accept loop. The accept loop is
// a single sequential goroutine that only ever spawns per-connection
// goroutines and never blocks on per-client work.
func (s *Server) Start() error {
	if s.deps.Auth == nil {
		return fmt.Errorf("server: missing authenticator dependency")
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}
