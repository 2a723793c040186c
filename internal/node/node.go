// Package node runs one game node: it keeps a link to the master
// server, spins up a map server for every map the master assigns, and
// reports its load back so the master can balance channels.
package node

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/config"
	"github.com/FeXyK/Authory/internal/data"
	"github.com/FeXyK/Authory/internal/mapserver"
	"github.com/FeXyK/Authory/internal/scripting"
	"github.com/FeXyK/Authory/internal/transport"
	"github.com/FeXyK/Authory/internal/wire"
	"github.com/FeXyK/Authory/internal/world"
)

// admissionTTL is how long a master-approved character may take to
// show up on the map server before its token expires.
const admissionTTL = 30 * time.Second

// Node hosts map servers and speaks to the master on their behalf.
type Node struct {
	cfg *config.NodeConfig
	log *zap.Logger

	skills *data.SkillTable
	npcs   *data.NpcTable
	maps   *data.MapTable

	mu       sync.Mutex
	master   transport.Conn
	servers  map[int]*mapserver.Server
	engines  []*scripting.Engine
	nextPort int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New loads the data tables and prepares a node. Run starts it.
func New(cfg *config.NodeConfig, log *zap.Logger) (*Node, error) {
	skills, err := data.LoadSkillTable(filepath.Join(cfg.Data.Dir, "skill_list.yaml"))
	if err != nil {
		return nil, err
	}
	npcs, err := data.LoadNpcTable(filepath.Join(cfg.Data.Dir, "npc_list.yaml"))
	if err != nil {
		return nil, err
	}
	maps, err := data.LoadMapTable(filepath.Join(cfg.Data.Dir, "map_list.yaml"))
	if err != nil {
		return nil, err
	}
	return &Node{
		cfg:      cfg,
		log:      log,
		skills:   skills,
		npcs:     npcs,
		maps:     maps,
		servers:  make(map[int]*mapserver.Server),
		nextPort: cfg.Node.BasePort,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Run connects to the master and serves until Stop. It blocks.
func (n *Node) Run() {
	defer close(n.done)
	reportEvery := time.Duration(n.cfg.Master.ReportInterval) * n.cfg.World.TickInterval
	if reportEvery <= 0 {
		reportEvery = 3 * time.Second
	}

	for {
		conn, err := n.dialMaster()
		if err != nil {
			return
		}
		n.serveMaster(conn, reportEvery)
		select {
		case <-n.stop:
			return
		default:
			n.log.Warn("lost master connection, reconnecting")
		}
	}
}

// Stop disconnects from the master and shuts every map server down,
// handing all remaining characters back first.
func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		close(n.stop)
		n.mu.Lock()
		master := n.master
		n.mu.Unlock()
		if master != nil {
			master.Close()
		}
	})
	<-n.done

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, srv := range n.servers {
		n.returnCharacters(srv)
		srv.Stop()
	}
	for _, e := range n.engines {
		e.Close()
	}
	n.servers = make(map[int]*mapserver.Server)
}

func (n *Node) dialMaster() (transport.Conn, error) {
	for {
		conn, err := transport.Dial(n.cfg.Master.Address, n.log)
		if err == nil {
			n.mu.Lock()
			n.master = conn
			n.mu.Unlock()
			n.hail(conn)
			n.log.Info("connected to master", zap.String("address", n.cfg.Master.Address))
			return conn, nil
		}
		n.log.Warn("master unreachable, retrying",
			zap.String("address", n.cfg.Master.Address),
			zap.Duration("in", n.cfg.Master.RetryInterval),
			zap.Error(err))
		select {
		case <-time.After(n.cfg.Master.RetryInterval):
		case <-n.stop:
			return nil, fmt.Errorf("node stopping")
		}
	}
}

// hail introduces the node: the host clients will use to reach the map
// servers it hosts.
func (n *Node) hail(conn transport.Conn) {
	w := wire.NewMasterWriter(wire.MasterNewNodeConnection)
	w.WriteS(n.cfg.Node.BindHost)
	conn.Send(w.Bytes(), transport.ReliableOrdered)
}

func (n *Node) serveMaster(conn transport.Conn, reportEvery time.Duration) {
	report := time.NewTicker(reportEvery)
	defer report.Stop()

	for {
		select {
		case msg, ok := <-conn.Receive():
			if !ok {
				return
			}
			n.handleMaster(conn, msg)
		case <-report.C:
			n.reportLoad(conn)
		case <-n.stop:
			return
		}
	}
}

// reportLoad tells the master how many players each hosted channel
// carries.
func (n *Node) reportLoad(conn transport.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	w := wire.NewMasterWriter(wire.MasterLoadReport)
	w.WriteD(int32(len(n.servers)))
	for port, srv := range n.servers {
		w.WriteD(int32(port))
		w.WriteD(int32(srv.PlayerCount()))
	}
	conn.Send(w.Bytes(), transport.ReliableSequenced)
}

func (n *Node) sendToMaster(payload []byte, d transport.Delivery) {
	n.mu.Lock()
	master := n.master
	n.mu.Unlock()
	if master != nil {
		master.Send(payload, d)
	}
}

// createMapServer boots one channel of the given map on the next free
// port and returns it.
func (n *Node) createMapServer(port int, mapIndex int32, mapName string) (*mapserver.Server, error) {
	d := world.NewData(mapIndex, mapName, n.cfg.World.Extent, n.cfg.World.GridResolution, n.log)
	d.Skills = n.skills

	engine, err := scripting.NewEngine(n.cfg.Data.ScriptsDir, n.log)
	if err != nil {
		return nil, fmt.Errorf("map %q scripts: %w", mapName, err)
	}
	d.Scripts = engine

	ln, err := transport.Listen(fmt.Sprintf("%s:%d", n.cfg.Node.ListenHost, port), n.log)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("map %q listen: %w", mapName, err)
	}

	srv := mapserver.New(d, ln, port, n.cfg.World.TickInterval, n.log)
	if def := n.maps.Get(mapIndex); def != nil {
		if err := srv.LoadMap(def, n.npcs); err != nil {
			ln.Close()
			engine.Close()
			return nil, err
		}
	} else {
		n.log.Warn("no definition for assigned map, starting empty",
			zap.Int32("map", mapIndex))
	}
	srv.MapChange = func(p *world.Player, targetMap int32) {
		n.sendMapChange(p, targetMap)
	}
	srv.Run()

	n.mu.Lock()
	n.servers[port] = srv
	n.engines = append(n.engines, engine)
	n.mu.Unlock()
	return srv, nil
}

// allocPort hands out map server ports. The master tells a late-joining
// node where the cluster's port counter stands so channels never
// collide across nodes behind one host.
func (n *Node) allocPort(latestPort int32) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if int(latestPort) >= 1000 && int(latestPort) > n.nextPort {
		n.nextPort = int(latestPort)
	}
	port := n.nextPort
	n.nextPort++
	return port
}

func (n *Node) serverByPort(port int32) *mapserver.Server {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.servers[int(port)]
}

// sendMapChange forwards a teleport interaction to the master together
// with the character's current state, so the target channel starts the
// player exactly where this one left it.
func (n *Node) sendMapChange(p *world.Player, targetMap int32) {
	w := wire.NewMasterWriter(wire.MasterMapChangeRequest)
	w.WriteD(targetMap)
	characterOf(p).Write(w)
	n.sendToMaster(w.Bytes(), transport.ReliableOrdered)
}

// returnCharacters hands every character on srv back to the master.
func (n *Node) returnCharacters(srv *mapserver.Server) {
	srv.Data.PlayersByID.Range(func(_ uint16, p *world.Player) bool {
		n.sendCharacterBack(p)
		srv.Data.RemovePlayer(p)
		return true
	})
}

func (n *Node) sendCharacterBack(p *world.Player) {
	w := wire.NewMasterWriter(wire.MasterRequestCharacterInfo)
	characterOf(p).Write(w)
	n.sendToMaster(w.Bytes(), transport.ReliableOrdered)
}

// characterOf snapshots a live player into its persistent shape.
func characterOf(p *world.Player) wire.CharacterInfo {
	pos := p.Position()
	return wire.CharacterInfo{
		CharacterID: p.CharacterID,
		AccountID:   p.AccountID,
		Name:        p.Name(),
		Experience:  p.Experience,
		Level:       p.Level(),
		Model:       byte(p.Model()),
		PosX:        pos.X,
		PosZ:        pos.Z,
		Health:      int32(p.Health().Value),
		Mana:        int32(p.Mana().Value),
	}
}
