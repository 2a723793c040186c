package node

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/geom"
	"github.com/FeXyK/Authory/internal/transport"
	"github.com/FeXyK/Authory/internal/wire"
	"github.com/FeXyK/Authory/internal/world"
)

func (n *Node) handleMaster(conn transport.Conn, msg []byte) {
	r := wire.NewReader(msg)
	switch r.MasterType() {
	case wire.MasterRequestMap:
		latestPort := r.ReadD()
		mapIndex := r.ReadD()
		mapName := r.ReadS()
		n.handleRequestMap(conn, latestPort, mapIndex, mapName)

	case wire.MasterRequestMaps:
		n.handleRequestMaps(conn, r)

	case wire.MasterRemoveMap:
		n.handleRemoveMap(conn, r.ReadD())

	case wire.MasterCharacterInfo:
		n.handleCharacterInfo(conn, r)

	case wire.MasterRequestCharacterInfo:
		serverPort := r.ReadD()
		characterID := r.ReadD()
		n.handleRequestCharacterInfo(conn, serverPort, characterID)

	case wire.MasterShutdown:
		n.log.Info("shutdown ordered by master")
		go n.Stop()

	default:
		n.log.Debug("unhandled master message", zap.Uint8("type", uint8(r.MasterType())))
	}
}

func (n *Node) handleRequestMap(conn transport.Conn, latestPort, mapIndex int32, mapName string) {
	port := n.allocPort(latestPort)
	if _, err := n.createMapServer(port, mapIndex, mapName); err != nil {
		n.log.Error("map server start failed",
			zap.Int32("map", mapIndex), zap.Error(err))
		return
	}
	w := wire.NewMasterWriter(wire.MasterMapCreated)
	w.WriteD(int32(port))
	w.WriteD(mapIndex)
	w.WriteS(mapName)
	conn.Send(w.Bytes(), transport.ReliableOrdered)
}

func (n *Node) handleRequestMaps(conn transport.Conn, r *wire.Reader) {
	latestPort := r.ReadD()
	count := int(r.ReadH())

	w := wire.NewMasterWriter(wire.MasterMapsCreated)
	countOff := w.Len()
	w.WriteH(0)
	created := uint16(0)
	for i := 0; i < count; i++ {
		mapIndex := r.ReadD()
		mapName := r.ReadS()
		port := n.allocPort(latestPort)
		if _, err := n.createMapServer(port, mapIndex, mapName); err != nil {
			n.log.Error("map server start failed",
				zap.Int32("map", mapIndex), zap.Error(err))
			continue
		}
		w.WriteD(int32(port))
		w.WriteD(mapIndex)
		w.WriteS(mapName)
		created++
	}
	w.PatchH(countOff, created)
	conn.Send(w.Bytes(), transport.ReliableOrdered)
}

func (n *Node) handleRemoveMap(conn transport.Conn, port int32) {
	srv := n.serverByPort(port)
	if srv == nil {
		return
	}
	n.returnCharacters(srv)
	srv.Stop()
	n.mu.Lock()
	delete(n.servers, int(port))
	n.mu.Unlock()

	w := wire.NewMasterWriter(wire.MasterMapsRemoved)
	w.WriteD(port)
	conn.Send(w.Bytes(), transport.ReliableOrdered)
	n.log.Info("map server removed", zap.Int32("port", port))
}

// handleCharacterInfo builds the live player for a character the
// master routed here, parks it behind a one-time session token, and
// approves the connection back through the master.
func (n *Node) handleCharacterInfo(conn transport.Conn, r *wire.Reader) {
	serverPort := r.ReadD()
	uid := r.ReadQU()
	info := wire.ReadCharacterInfo(r)

	srv := n.serverByPort(serverPort)
	if srv == nil {
		n.log.Warn("character routed to unknown channel",
			zap.Int32("port", serverPort), zap.String("name", info.Name))
		return
	}

	p := world.NewPlayer(srv.Data, info.Name, world.ModelType(info.Model), info.Level)
	p.UID = uid
	p.AccountID = info.AccountID
	p.CharacterID = info.CharacterID
	p.Experience = info.Experience
	if info.Health > 0 {
		p.Health().Value = int(info.Health)
	}
	if info.Mana > 0 {
		p.Mana().Value = int(info.Mana)
	}
	p.SetPosition(geom.New(info.PosX, 0, info.PosZ))
	p.SetID(srv.Data.NextPlayerID())

	token := uuid.NewString()
	srv.Data.AddAwaiting(token, p, admissionTTL)

	w := wire.NewMasterWriter(wire.MasterConnectionApproved)
	w.WriteD(serverPort)
	w.WriteD(info.AccountID)
	w.WriteD(info.CharacterID)
	w.WriteQU(uid)
	w.WriteS(token)
	w.WriteH(p.ID())
	conn.Send(w.Bytes(), transport.ReliableOrdered)

	n.log.Info("character approved",
		zap.String("name", info.Name),
		zap.Int32("port", serverPort),
		zap.Uint16("entity", p.ID()))
}

// handleRequestCharacterInfo answers the master's sweep for a
// character's final state: handoff state left by a disconnect first,
// then the live player.
func (n *Node) handleRequestCharacterInfo(conn transport.Conn, serverPort, characterID int32) {
	srv := n.serverByPort(serverPort)
	if srv == nil {
		n.sendCharacterNotFound(conn, characterID)
		return
	}
	p := srv.Data.TakeRecentlyOnline(characterID)
	if p == nil {
		p = srv.Data.FindPlayer(characterID)
	}
	if p == nil {
		n.sendCharacterNotFound(conn, characterID)
		return
	}
	w := wire.NewMasterWriter(wire.MasterRequestCharacterInfo)
	characterOf(p).Write(w)
	conn.Send(w.Bytes(), transport.ReliableOrdered)
}

func (n *Node) sendCharacterNotFound(conn transport.Conn, characterID int32) {
	w := wire.NewMasterWriter(wire.MasterCharacterNotFound)
	w.WriteD(characterID)
	conn.Send(w.Bytes(), transport.ReliableOrdered)
}
