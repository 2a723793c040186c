// Package mapserver hosts the simulation of one map: the two fixed-rate
// loops that tick players and mobs, the client-facing message handlers,
// and the outbound fan-out over the interest grid. One node process
// runs one Server per map channel, each on its own port.
package mapserver

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/data"
	"github.com/FeXyK/Authory/internal/geom"
	"github.com/FeXyK/Authory/internal/transport"
	"github.com/FeXyK/Authory/internal/wire"
	"github.com/FeXyK/Authory/internal/world"
)

const (
	// initialTickRate seeds the measured loop rates before the first
	// full iteration completes.
	initialTickRate = 50

	// handshakeTimeout bounds how long a fresh connection may sit
	// silent before it must present its session token.
	handshakeTimeout = 10 * time.Second

	// maxMessagesPerTick bounds how many inbound messages one player
	// can push into a single simulation step.
	maxMessagesPerTick = 64

	// sweepEvery spaces out the expired-token sweeps, in mob loop
	// iterations.
	sweepEvery = 100
)

// admission carries a token-approved player from the handshake
// goroutine onto the player loop.
type admission struct {
	player *world.Player
	conn   transport.Conn
}

// Server runs one map. It implements world.Broadcaster and
// world.RateSource for its own Data.
type Server struct {
	Data *world.Data
	Port int

	// MapChange fires when a player steps through a teleport. The node
	// wires it to a master round trip; nil drops the request.
	MapChange func(p *world.Player, mapIndex int32)

	listener transport.Listener
	quant    wire.Quantizer
	interval time.Duration
	log      *zap.Logger

	mobs []*world.Mob

	playerRate atomic.Uint32 // float32 bits
	mobRate    atomic.Uint32

	admissions chan admission
	stop       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// New builds a server around d and takes over its broadcast and rate
// wiring. The listener must already be bound.
func New(d *world.Data, ln transport.Listener, port int, interval time.Duration, log *zap.Logger) *Server {
	s := &Server{
		Data:       d,
		Port:       port,
		listener:   ln,
		quant:      wire.NewQuantizer(d.Extent),
		interval:   interval,
		log:        log,
		admissions: make(chan admission, 16),
		stop:       make(chan struct{}),
	}
	s.playerRate.Store(math.Float32bits(initialTickRate))
	s.mobRate.Store(math.Float32bits(initialTickRate))
	d.Broadcast = s
	d.Rates = s
	return s
}

// LoadMap populates the grid from a map definition: mob packs from the
// spawner list and teleport gates from the teleport list.
func (s *Server) LoadMap(def *data.MapDef, npcs *data.NpcTable) error {
	for _, sp := range def.Spawners {
		tpl := npcs.Get(sp.Npc)
		if tpl == nil {
			return fmt.Errorf("map %q: unknown npc %q", def.Name, sp.Npc)
		}
		spawner := world.Spawner{
			Template: tpl,
			Center:   geom.New(sp.X, 0, sp.Z),
			Radius:   sp.Radius,
			Count:    sp.Count,
		}
		s.mobs = append(s.mobs, spawner.Populate(s.Data)...)
	}
	for _, td := range def.Teleports {
		t := world.NewTeleport(s.Data, td.Name, geom.New(td.X, 0, td.Z), td.TargetMap, td.Radius)
		if !s.Data.PlaceTeleport(t) {
			return fmt.Errorf("map %q: teleport %q outside the grid", def.Name, td.Name)
		}
	}
	s.log.Info("map loaded",
		zap.String("map", def.Name),
		zap.Int("mobs", len(s.mobs)),
		zap.Int("teleports", len(def.Teleports)))
	return nil
}

// Run starts the accept, player and mob loops. It returns immediately.
func (s *Server) Run() {
	s.wg.Add(3)
	go s.acceptLoop()
	go s.playerLoop()
	go s.mobLoop()
	s.log.Info("map server running",
		zap.String("map", s.Data.MapName),
		zap.Int("port", s.Port))
}

// Stop shuts the server down and waits for the loops to exit.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.listener.Close()
	})
	s.wg.Wait()
	s.Data.PlayersByID.Range(func(_ uint16, p *world.Player) bool {
		if p.Conn != nil {
			p.Conn.Close()
		}
		return true
	})
}

// PlayerTickRate reports the measured player loop rate in ticks per
// second.
func (s *Server) PlayerTickRate() float32 {
	return math.Float32frombits(s.playerRate.Load())
}

// MobTickRate reports the measured mob loop rate in ticks per second.
func (s *Server) MobTickRate() float32 {
	return math.Float32frombits(s.mobRate.Load())
}

// PlayerCount reports the number of online players, for load reports.
func (s *Server) PlayerCount() int {
	return s.Data.PlayerCount()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for conn := range s.listener.Accept() {
		go s.handshake(conn)
	}
}

// handshake waits for the first frame of a fresh connection, which
// must carry the session token handed out by the master through the
// node. Anything else is shed.
func (s *Server) handshake(conn transport.Conn) {
	timeout := time.NewTimer(handshakeTimeout)
	defer timeout.Stop()

	select {
	case msg, ok := <-conn.Receive():
		if !ok {
			return
		}
		token := wire.NewRawReader(msg).ReadS()
		p, ok := s.Data.TakeAwaiting(token)
		if !ok {
			s.log.Warn("rejected connection with unknown token",
				zap.String("remote", conn.RemoteAddr()))
			conn.Close()
			return
		}
		select {
		case s.admissions <- admission{player: p, conn: conn}:
		case <-s.stop:
			conn.Close()
		}
	case <-timeout.C:
		s.log.Debug("handshake timed out", zap.String("remote", conn.RemoteAddr()))
		conn.Close()
	case <-s.stop:
		conn.Close()
	}
}

// playerLoop is the main simulation loop: admissions, inbound
// messages, entity ticks, then the batched movement fan-out. It aims
// for one iteration per interval and records the rate it actually
// achieves.
func (s *Server) playerLoop() {
	defer s.wg.Done()
	for {
		start := time.Now()

		s.drainAdmissions()
		s.Data.PlayersByID.Range(func(_ uint16, p *world.Player) bool {
			select {
			case <-p.Conn.Done():
				s.dropPlayer(p)
				return true
			default:
			}
			s.drainMessages(p)
			p.Tick()
			return true
		})
		s.flushMovement()

		if !s.sleepRemainder(start) {
			return
		}
		storeRate(&s.playerRate, time.Since(start))
	}
}

func (s *Server) mobLoop() {
	defer s.wg.Done()
	iteration := 0
	for {
		start := time.Now()

		for _, m := range s.mobs {
			m.Tick()
		}
		iteration++
		if iteration%sweepEvery == 0 {
			s.Data.SweepAwaiting()
		}

		if !s.sleepRemainder(start) {
			return
		}
		storeRate(&s.mobRate, time.Since(start))
	}
}

// sleepRemainder sleeps off whatever the iteration left of the tick
// interval. It returns false when the server is stopping.
func (s *Server) sleepRemainder(start time.Time) bool {
	remaining := s.interval - time.Since(start)
	if remaining <= 0 {
		select {
		case <-s.stop:
			return false
		default:
			return true
		}
	}
	select {
	case <-time.After(remaining):
		return true
	case <-s.stop:
		return false
	}
}

func storeRate(slot *atomic.Uint32, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	slot.Store(math.Float32bits(float32(time.Second) / float32(elapsed)))
}

func (s *Server) drainAdmissions() {
	for {
		select {
		case a := <-s.admissions:
			s.admit(a)
		default:
			return
		}
	}
}

// admit puts an approved player on the grid and ships it the full
// picture of its surroundings.
func (s *Server) admit(a admission) {
	p := a.player
	p.Conn = a.conn
	s.Data.AddPlayer(p, p.Position())
	s.sendPlayerInit(p)
	p.CalculateResources()
	s.SendGridEntities(p)
	s.SendGridResources(p)
	s.SendFullEntityUpdate(p)
	s.log.Info("player admitted",
		zap.String("name", p.Name()),
		zap.Uint16("id", p.ID()),
		zap.String("map", s.Data.MapName))
}

func (s *Server) drainMessages(p *world.Player) {
	for i := 0; i < maxMessagesPerTick; i++ {
		select {
		case msg, ok := <-p.Conn.Receive():
			if !ok {
				return
			}
			s.handle(p, msg)
		default:
			return
		}
	}
}

// dropPlayer takes a dead connection out of the simulation. The final
// character state stays reachable for the master's sweep.
func (s *Server) dropPlayer(p *world.Player) {
	s.Data.RemovePlayer(p)
	w := wire.NewWriter(wire.MsgDisconnect)
	w.WriteH(p.ID())
	s.sendToAll(w.Bytes(), transport.ReliableOrdered)
	s.log.Info("player disconnected",
		zap.String("name", p.Name()),
		zap.String("map", s.Data.MapName))
}

// flushMovement sends one position batch per occupied cell to every
// player in that cell's neighbourhood. Only players that moved since
// the last flush are included.
func (s *Server) flushMovement() {
	for _, row := range s.Data.Grid {
		for _, cell := range row {
			if cell.PlayerCount() == 0 {
				continue
			}
			w := wire.NewWriter(wire.MsgPlayerMovement)
			countOff := w.Len()
			w.WriteH(0)
			count := 0
			cell.Players.Range(func(_ uint16, p *world.Player) bool {
				if !p.DirtyPos {
					return true
				}
				p.DirtyPos = false
				pos := p.Position()
				w.WriteH(p.ID())
				w.WriteH(s.quant.Quantize(pos.X))
				w.WriteH(s.quant.Quantize(pos.Z))
				count++
				return true
			})
			if count == 0 {
				continue
			}
			w.PatchH(countOff, uint16(count))
			s.sendToNeighbours(cell, w.Bytes(), transport.UnreliableSequenced)
		}
	}
}
