package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rook/blindsolver/internal/solver/decision"
	"github.com/rook/blindsolver/internal/solver/registry"
)

// Inspector receives a copy of every decision this bridge makes, for the
// decision-inspector TUI (internal/tui) or any other live observer. Kept
// as a narrow interface so bridge has no direct dependency on the
// websocket transport package.
type Inspector interface {
	Publish(event InspectEvent)
}

// InspectEvent is one decision's full detail, pushed to the /inspect
// channel alongside the thin ActionReply sent back over the TCP wire.
type InspectEvent struct {
	RequestID string          `json:"request_id"`
	Snapshot  Snapshot        `json:"snapshot"`
	Action    ActionReply     `json:"action"`
	Decision  decision.Action `json:"decision"`
}

type noopInspector struct{}

func (noopInspector) Publish(InspectEvent) {}

// serverConfig mirrors the teacher's functional-options pattern
// (internal/server/server.go's ServerOption/WithConfig/WithBotPool).
type serverConfig struct {
	logger    zerolog.Logger
	registry  *registry.Registry
	decision  decision.Config
	inspector Inspector
}

// Option configures a Server before it starts serving.
type Option func(*serverConfig)

// WithLogger sets the zerolog logger used for connection-scoped events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *serverConfig) { c.logger = logger }
}

// WithRegistry overrides the default modifier-entity registry (useful
// in tests to inject a stub).
func WithRegistry(reg *registry.Registry) Option {
	return func(c *serverConfig) { c.registry = reg }
}

// WithDecisionConfig overrides the decision engine's tuning weights.
func WithDecisionConfig(cfg decision.Config) Option {
	return func(c *serverConfig) { c.decision = cfg }
}

// WithInspector wires a live-decision observer (the /inspect websocket
// hub in internal/bridge/inspect).
func WithInspector(i Inspector) Option {
	return func(c *serverConfig) { c.inspector = i }
}

// Server is the TCP newline-delimited-JSON bridge described in spec.md
// §6: each inbound line is a Snapshot, each outbound line is an
// ActionReply. It holds no long-running game state of its own beyond
// what a single decision requires (spec.md §1's explicit non-goal).
type Server struct {
	cfg      serverConfig
	listener net.Listener

	mu       sync.Mutex
	quit     chan struct{}
	quitOnce sync.Once
}

// New builds a Server with the given options applied over defaults
// (a fresh registry, a disabled logger, and DefaultConfig decision
// weights).
func New(opts ...Option) *Server {
	cfg := serverConfig{
		logger:   zerolog.Nop(),
		registry: registry.New(),
		decision: decision.DefaultConfig(),
		inspector: noopInspector{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{cfg: cfg, quit: make(chan struct{})}
}

// Start listens on addr and serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on an existing listener, handling each on
// its own goroutine (spec.md §5: "the TCP bridge... suspends the
// connection thread on recv until a newline-terminated message
// arrives" — here, a goroutine per connection rather than an OS thread,
// the idiomatic Go equivalent).
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.cfg.logger.Info().Str("addr", listener.Addr().String()).Msg("bridge listening")

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				wg.Wait()
				return nil
			default:
				return err
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Shutdown stops accepting new connections by closing the listener. ctx
// is not consulted: open connections are not closed or timed out, and
// Serve returns only after every connection handler has finished.
func (s *Server) Shutdown(ctx context.Context) error {
	s.quitOnce.Do(func() { close(s.quit) })
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		start := time.Now()
		reply, requestID := s.processLine(line)
		encoded, err := json.Marshal(reply)
		if err != nil {
			s.cfg.logger.Error().Err(err).Str("remote_addr", remote).Msg("failed to encode reply")
			continue
		}
		encoded = append(encoded, '\n')
		if _, err := conn.Write(encoded); err != nil {
			s.cfg.logger.Error().Err(err).Str("remote_addr", remote).Msg("failed to write reply")
			return
		}
		s.cfg.logger.Info().
			Str("remote_addr", remote).
			Str("request_id", requestID).
			Dur("latency_ms", time.Since(start)).
			Msg("bridge decision")
	}
}

// Decide runs one snapshot through the same phase-routed decision logic
// the TCP loop uses, without a connection — for the CLI's one-shot
// stdin/stdout mode and for tests that want a reply without dialing a
// socket.
func (s *Server) Decide(snap Snapshot) ActionReply {
	action := s.decide(snap)
	reply := toActionReply(snap, action)
	if reply.RequestID == "" {
		reply.RequestID = snap.RequestID
	}
	s.cfg.inspector.Publish(InspectEvent{RequestID: reply.RequestID, Snapshot: snap, Action: reply, Decision: action})
	return reply
}

// processLine decodes one inbound Snapshot and returns the JSON value to
// write back (either an ActionReply or an ErrorReply) plus the request
// id used for correlating logs across the TCP and WS channels.
func (s *Server) processLine(line []byte) (any, string) {
	var snap Snapshot
	if err := json.Unmarshal(line, &snap); err != nil {
		// Invalid-input error per spec.md §7: surfaced without advancing
		// state; the offending message is logged.
		s.cfg.logger.Warn().Err(err).Msg("malformed snapshot")
		return ErrorReply{Error: "malformed JSON: " + err.Error()}, ""
	}
	requestID := snap.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	action := s.decide(snap)
	reply := toActionReply(snap, action)
	reply.RequestID = requestID

	s.cfg.inspector.Publish(InspectEvent{RequestID: requestID, Snapshot: snap, Action: reply, Decision: action})
	return reply, requestID
}

// decide routes a snapshot to the appropriate C7/C9 logic by its
// reported phase. Only SELECTING_HAND exercises the full lethality/EV
// pipeline (C9); the other phases covered here have a single obviously
// correct response, which is all spec.md §6 requires of this thin
// collaborator.
func (s *Server) decide(snap Snapshot) decision.Action {
	entities, dropped := toEntities(snap.Entities, s.cfg.registry)
	for _, id := range dropped {
		s.cfg.logger.Warn().Str("entity_id", id).Msg("unknown entity id on wire, dropped")
	}

	switch snap.PhaseName {
	case PhaseSelectingHand:
		hand := toCards(snap.Hand)
		state := toGameState(snap)
		tracker := toTracker(snap)
		return decision.Decide(
			hand, entities, s.cfg.registry, state, tracker,
			chipsNeeded(snap), snap.Blind.ChipsRequired, snap.HandsRemaining, snap.DiscardsRemaining,
			state.IsBossBlind, s.cfg.decision,
		)
	case PhaseBlindSelect:
		return decision.Action{Type: decision.Play, Reasoning: []string{"start_blind"}}
	case PhaseShop:
		return decision.Action{Type: decision.Play, Reasoning: []string{"end_shop"}}
	default:
		return decision.Action{Type: decision.Play, Reasoning: []string{"wait: phase " + string(snap.PhaseName) + " has no pending decision"}}
	}
}

// toActionReply converts the decision engine's internal Action into the
// wire ActionReply shape, picking the action_type by phase since
// decision.Action itself only distinguishes Play vs Discard.
func toActionReply(snap Snapshot, a decision.Action) ActionReply {
	reasoning := ""
	if len(a.Reasoning) > 0 {
		reasoning = a.Reasoning[len(a.Reasoning)-1]
	}
	switch snap.PhaseName {
	case PhaseBlindSelect:
		return ActionReply{ActionType: ActionBlind, Skip: false, Reasoning: reasoning, Confidence: 1.0}
	case PhaseShop:
		return ActionReply{ActionType: ActionShop, Reasoning: reasoning, Confidence: 1.0}
	case PhaseSelectingHand:
		at := ActionPlay
		if a.Type == decision.Discard {
			at = ActionDiscard
		}
		confidence := 0.5
		if a.IsLethal {
			confidence = 1.0
		}
		return ActionReply{
			ActionType:  at,
			CardIndices: a.Indices,
			Reasoning:   reasoning,
			Confidence:  confidence,
		}
	default:
		return ActionReply{ActionType: ActionWait, Reasoning: reasoning}
	}
}
