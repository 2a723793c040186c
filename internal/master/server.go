package master

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/config"
	"github.com/FeXyK/Authory/internal/data"
	"github.com/FeXyK/Authory/internal/persist"
	"github.com/FeXyK/Authory/internal/transport"
	"github.com/FeXyK/Authory/internal/wire"
)

// dbTimeout bounds every database round trip made from the event loop.
const dbTimeout = 5 * time.Second

// AccountStore is the account persistence the server needs. Satisfied
// by persist.AccountRepo; tests use an in-memory fake.
type AccountStore interface {
	Load(ctx context.Context, name string) (*persist.AccountRow, error)
	Create(ctx context.Context, name, rawPassword string) (*persist.AccountRow, error)
	TouchLastActive(ctx context.Context, id int32) error
	ValidatePassword(hash, rawPassword string) bool
}

// CharacterStore is the character persistence the server needs.
// Satisfied by persist.CharacterRepo.
type CharacterStore interface {
	Create(ctx context.Context, accountID int32, name string, model int16) (*persist.CharacterRow, error)
	ListByAccount(ctx context.Context, accountID int32) ([]*persist.CharacterRow, error)
	Update(ctx context.Context, row *persist.CharacterRow) error
	Delete(ctx context.Context, accountID, characterID int32, name string) (bool, error)
}

// session is one logged-in client on the master channel.
type session struct {
	conn    transport.Conn
	account *persist.AccountRow

	characters map[int32]*persist.CharacterRow

	// active is the character currently on (or routing to) a channel.
	active     *persist.CharacterRow
	activeChan *Channel
	uid        uint64

	// parted marks when the master link died; the sweep collects the
	// character state from the node and then forgets the session.
	parted    time.Time
	collected bool
}

type event struct {
	conn   transport.Conn
	msg    []byte
	closed bool
}

// Server is the master process: one event loop owns all session and
// registry mutation, fed by per-connection pump goroutines.
type Server struct {
	cfg *config.MasterConfig
	log *zap.Logger

	accounts   AccountStore
	characters CharacterStore
	maps       *data.MapTable
	registry   *Registry

	listener transport.Listener
	events   chan event

	sessions map[transport.Conn]*session
	nextUID  uint64
	tick     int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New wires a master server. The database-backed stores come from the
// caller so tests can substitute fakes.
func New(cfg *config.MasterConfig, accounts AccountStore, characters CharacterStore, log *zap.Logger) (*Server, error) {
	maps, err := data.LoadMapTable(filepath.Join(cfg.Data.Dir, "map_list.yaml"))
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:        cfg,
		log:        log,
		accounts:   accounts,
		characters: characters,
		maps:       maps,
		registry:   NewRegistry(),
		events:     make(chan event, 256),
		sessions:   make(map[transport.Conn]*session),
		nextUID:    uint64(time.Now().Unix()) << 20,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Run listens and serves until Stop. It blocks.
func (s *Server) Run() error {
	ln, err := transport.Listen(s.cfg.Server.BindAddress, s.log)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Info("master listening", zap.String("address", ln.Addr()))

	go s.acceptLoop()
	s.loop()
	return nil
}

// Stop orders every node to shut down and stops the loop.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.listener != nil {
			s.listener.Close()
		}
	})
	<-s.done
}

func (s *Server) acceptLoop() {
	for conn := range s.listener.Accept() {
		go s.pump(conn)
	}
}

// pump forwards one connection's messages into the event loop and
// reports its death.
func (s *Server) pump(conn transport.Conn) {
	for msg := range conn.Receive() {
		select {
		case s.events <- event{conn: conn, msg: msg}:
		case <-s.stop:
			return
		}
	}
	select {
	case s.events <- event{conn: conn, closed: true}:
	case <-s.stop:
	}
}

func (s *Server) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.Server.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.events:
			if ev.closed {
				s.handleClosed(ev.conn)
			} else {
				s.handle(ev.conn, ev.msg)
			}
		case <-ticker.C:
			s.tick++
			if s.cfg.Server.DisconnectSweep > 0 && s.tick%s.cfg.Server.DisconnectSweep == 0 {
				s.sweepParted()
			}
		case <-s.stop:
			s.shutdownNodes()
			return
		}
	}
}

// handleClosed reacts to a dead connection: a node takes its channels
// with it, a client session lingers until its character state has been
// collected from the node it played on.
func (s *Server) handleClosed(conn transport.Conn) {
	if node := s.registry.RemoveNode(conn); node != nil {
		s.log.Warn("node disconnected",
			zap.String("host", node.Host),
			zap.Int("channels", len(node.Channels)))
		return
	}
	sess, ok := s.sessions[conn]
	if !ok {
		return
	}
	if sess.active == nil || sess.activeChan == nil {
		delete(s.sessions, conn)
		return
	}
	sess.parted = time.Now()
	s.log.Info("client parted, character pending collection",
		zap.String("account", sess.account.Name),
		zap.String("character", sess.active.Name))
}

// sweepParted asks nodes for the final state of characters whose
// clients vanished, and forgets sessions that outlived the handoff
// window.
func (s *Server) sweepParted() {
	now := time.Now()
	for conn, sess := range s.sessions {
		if sess.parted.IsZero() {
			continue
		}
		if now.Sub(sess.parted) > s.cfg.Server.HandoffTTL {
			s.log.Warn("handoff window expired",
				zap.String("character", sess.active.Name))
			delete(s.sessions, conn)
			continue
		}
		if !sess.collected && sess.activeChan != nil {
			w := wire.NewMasterWriter(wire.MasterRequestCharacterInfo)
			w.WriteD(sess.activeChan.Port)
			w.WriteD(sess.active.ID)
			sess.activeChan.Node.Conn.Send(w.Bytes(), transport.ReliableOrdered)
		}
	}
}

func (s *Server) shutdownNodes() {
	w := wire.NewMasterWriter(wire.MasterShutdown)
	s.registry.mu.Lock()
	nodes := append([]*NodeLink(nil), s.registry.nodes...)
	s.registry.mu.Unlock()
	for _, n := range nodes {
		n.Conn.Send(w.Bytes(), transport.ReliableOrdered)
	}
}

func (s *Server) dbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// sessionByAccount finds the live session of an account id.
func (s *Server) sessionByAccount(accountID int32) *session {
	for _, sess := range s.sessions {
		if sess.account != nil && sess.account.ID == accountID {
			return sess
		}
	}
	return nil
}

// sessionByCharacterName finds the session whose active character
// carries the given name, for private chat.
func (s *Server) sessionByCharacterName(name string) *session {
	for _, sess := range s.sessions {
		if sess.active != nil && sess.active.Name == name {
			return sess
		}
	}
	return nil
}
