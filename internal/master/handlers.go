package master

import (
	"errors"

	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/persist"
	"github.com/FeXyK/Authory/internal/transport"
	"github.com/FeXyK/Authory/internal/wire"
)

func (s *Server) handle(conn transport.Conn, msg []byte) {
	r := wire.NewReader(msg)
	t := r.MasterType()

	// First contact: a hail decides whether the peer is a node or a
	// client. Everything else requires an established identity.
	switch t {
	case wire.MasterNewNodeConnection:
		s.handleNodeHail(conn, r.ReadS())
		return
	case wire.MasterNewAccountConnection:
		username := r.ReadS()
		password := r.ReadS()
		s.handleLogin(conn, username, password)
		return
	}

	if node := s.registry.NodeByConn(conn); node != nil {
		s.handleNodeMessage(node, t, r)
		return
	}
	if sess, ok := s.sessions[conn]; ok {
		s.handleClientMessage(sess, t, r)
		return
	}
	s.log.Debug("message from unidentified peer",
		zap.Uint8("type", uint8(t)),
		zap.String("remote", conn.RemoteAddr()))
}

func (s *Server) handleNodeMessage(node *NodeLink, t wire.MasterMsgType, r *wire.Reader) {
	switch t {
	case wire.MasterMapCreated:
		port := r.ReadD()
		mapIndex := r.ReadD()
		mapName := r.ReadS()
		s.registry.AddChannel(node, port, mapIndex, mapName)
		s.log.Info("channel up",
			zap.String("map", mapName),
			zap.String("host", node.Host),
			zap.Int32("port", port))

	case wire.MasterMapsCreated:
		count := int(r.ReadH())
		for i := 0; i < count; i++ {
			port := r.ReadD()
			mapIndex := r.ReadD()
			mapName := r.ReadS()
			s.registry.AddChannel(node, port, mapIndex, mapName)
		}
		s.log.Info("channels up",
			zap.String("host", node.Host),
			zap.Int("count", count))

	case wire.MasterConnectionApproved:
		s.handleApproved(node, r)

	case wire.MasterRequestCharacterInfo:
		s.handleCharacterReturned(wire.ReadCharacterInfo(r))

	case wire.MasterCharacterNotFound:
		s.handleCharacterNotFound(r.ReadD())

	case wire.MasterMapChangeRequest:
		targetMap := r.ReadD()
		s.handleMapChange(targetMap, wire.ReadCharacterInfo(r))

	case wire.MasterLoadReport:
		count := int(r.ReadD())
		for i := 0; i < count; i++ {
			port := r.ReadD()
			players := r.ReadD()
			s.registry.UpdateLoad(node, port, players)
		}

	default:
		s.log.Debug("unhandled node message", zap.Uint8("type", uint8(t)))
	}
}

func (s *Server) handleClientMessage(sess *session, t wire.MasterMsgType, r *wire.Reader) {
	switch t {
	case wire.MasterCreateCharacter:
		name := r.ReadS()
		model := r.ReadC()
		s.handleCreateCharacter(sess, name, model)

	case wire.MasterDeleteCharacter:
		characterID := r.ReadD()
		name := r.ReadS()
		s.handleDeleteCharacter(sess, characterID, name)

	case wire.MasterServerConnectionRequest:
		s.handleConnectionRequest(sess, r.ReadD())

	case wire.MasterGlobalChat:
		s.handleGlobalChat(sess, r.ReadS())

	case wire.MasterWorldChat:
		s.handleWorldChat(sess, r.ReadS())

	case wire.MasterPrivateChat:
		target := r.ReadS()
		text := r.ReadS()
		s.handlePrivateChat(sess, target, text)

	default:
		s.log.Debug("unhandled client message", zap.Uint8("type", uint8(t)))
	}
}

// handleNodeHail registers a node. The first node is handed every map;
// later nodes start with one extra channel of the busiest map in the
// cluster so population pressure spreads.
func (s *Server) handleNodeHail(conn transport.Conn, host string) {
	busiest := s.registry.MostLoadedNode()
	node := s.registry.AddNode(conn, host)
	latestPort := s.registry.LatestPort()
	if latestPort > 0 {
		latestPort++
	}
	s.log.Info("node registered", zap.String("host", host))

	if busiest == nil {
		w := wire.NewMasterWriter(wire.MasterRequestMaps)
		w.WriteD(latestPort)
		w.WriteH(uint16(s.maps.Count()))
		for _, def := range s.maps.All() {
			w.WriteD(def.Index)
			w.WriteS(def.Name)
		}
		node.Conn.Send(w.Bytes(), transport.ReliableOrdered)
		return
	}

	target := busiest.MostLoadedChannel()
	if target == nil {
		return
	}
	w := wire.NewMasterWriter(wire.MasterRequestMap)
	w.WriteD(latestPort)
	w.WriteD(target.MapIndex)
	w.WriteS(target.MapName)
	node.Conn.Send(w.Bytes(), transport.ReliableOrdered)
}

// handleLogin authenticates or, when enabled, auto-creates the
// account, then ships the character list.
func (s *Server) handleLogin(conn transport.Conn, username, password string) {
	ctx, cancel := s.dbCtx()
	defer cancel()

	account, err := s.accounts.Load(ctx, username)
	if err != nil {
		s.log.Error("account lookup failed", zap.String("account", username), zap.Error(err))
		s.sendInformation(conn, wire.SysLoginFailed)
		return
	}
	if account == nil {
		if !s.cfg.Server.AutoCreateAccounts {
			s.sendInformation(conn, wire.SysLoginFailed)
			return
		}
		account, err = s.accounts.Create(ctx, username, password)
		if err != nil {
			s.log.Error("account creation failed", zap.String("account", username), zap.Error(err))
			s.sendInformation(conn, wire.SysLoginFailed)
			return
		}
		s.log.Info("account created", zap.String("account", username))
	} else if !s.accounts.ValidatePassword(account.PasswordHash, password) {
		s.log.Warn("bad password", zap.String("account", username))
		s.sendInformation(conn, wire.SysLoginFailed)
		return
	}

	// One session per account: a second login kicks the first.
	if old := s.sessionByAccount(account.ID); old != nil {
		old.conn.Close()
		delete(s.sessions, old.conn)
	}

	rows, err := s.characters.ListByAccount(ctx, account.ID)
	if err != nil {
		s.log.Error("character list failed", zap.String("account", username), zap.Error(err))
		s.sendInformation(conn, wire.SysLoginFailed)
		return
	}
	sess := &session{
		conn:       conn,
		account:    account,
		characters: make(map[int32]*persist.CharacterRow, len(rows)),
	}
	for _, row := range rows {
		sess.characters[row.ID] = row
	}
	s.sessions[conn] = sess
	s.accounts.TouchLastActive(ctx, account.ID)

	s.sendCharacterList(sess, wire.MasterNewAccountConnection)
	s.log.Info("account logged in",
		zap.String("account", username),
		zap.Int("characters", len(rows)))
}

func (s *Server) sendCharacterList(sess *session, t wire.MasterMsgType) {
	w := wire.NewMasterWriter(t)
	w.WriteD(sess.account.ID)
	w.WriteH(uint16(len(sess.characters)))
	for _, row := range sess.characters {
		w.WriteD(row.ID)
		w.WriteS(row.Name)
		w.WriteC(byte(row.Level))
		w.WriteC(byte(row.Model))
	}
	sess.conn.Send(w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) sendInformation(conn transport.Conn, code wire.SystemMsg) {
	w := wire.NewMasterWriter(wire.MasterInformation)
	w.WriteC(byte(code))
	conn.Send(w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) handleCreateCharacter(sess *session, name string, model byte) {
	ctx, cancel := s.dbCtx()
	defer cancel()

	row, err := s.characters.Create(ctx, sess.account.ID, name, int16(model))
	if errors.Is(err, persist.ErrNameTaken) {
		s.sendInformation(sess.conn, wire.SysInvalidCharacterName)
		return
	}
	if err != nil {
		s.log.Error("character creation failed",
			zap.String("account", sess.account.Name), zap.Error(err))
		return
	}
	sess.characters[row.ID] = row
	s.sendCharacterList(sess, wire.MasterRefreshCharacterList)
	s.log.Info("character created",
		zap.String("account", sess.account.Name),
		zap.String("character", name))
}

func (s *Server) handleDeleteCharacter(sess *session, characterID int32, name string) {
	ctx, cancel := s.dbCtx()
	defer cancel()

	ok, err := s.characters.Delete(ctx, sess.account.ID, characterID, name)
	if err != nil {
		s.log.Error("character deletion failed", zap.Error(err))
		return
	}
	if ok {
		delete(sess.characters, characterID)
	}
	s.sendCharacterList(sess, wire.MasterRefreshCharacterList)
}

// handleConnectionRequest routes a selected character onto the
// emptiest channel of its map.
func (s *Server) handleConnectionRequest(sess *session, characterID int32) {
	row, ok := sess.characters[characterID]
	if !ok {
		return
	}
	ch := s.registry.LeastLoadedChannel(row.MapIndex)
	if ch == nil {
		s.log.Warn("no channel for map",
			zap.Int32("map", row.MapIndex),
			zap.String("character", row.Name))
		s.sendInformation(sess.conn, wire.SysNoChannelAvailable)
		return
	}
	sess.active = row
	s.routeToChannel(sess, ch)
}

// routeToChannel hands a character to a node. The approval comes back
// through handleApproved once the node has parked the player.
func (s *Server) routeToChannel(sess *session, ch *Channel) {
	s.nextUID++
	sess.uid = s.nextUID
	sess.activeChan = ch

	row := sess.active
	w := wire.NewMasterWriter(wire.MasterCharacterInfo)
	w.WriteD(ch.Port)
	w.WriteQU(sess.uid)
	info := wire.CharacterInfo{
		CharacterID: row.ID,
		AccountID:   row.AccountID,
		Name:        row.Name,
		Experience:  row.Experience,
		Level:       byte(row.Level),
		Model:       byte(row.Model),
		PosX:        row.PosX,
		PosZ:        row.PosZ,
		Health:      row.Health,
		Mana:        row.Mana,
	}
	info.Write(w)
	ch.Node.Conn.Send(w.Bytes(), transport.ReliableOrdered)
}

// handleApproved relays a node's admission ticket to the client: where
// to connect and the one-time token to present.
func (s *Server) handleApproved(node *NodeLink, r *wire.Reader) {
	serverPort := r.ReadD()
	accountID := r.ReadD()
	r.ReadD() // character id, implied by the session
	uid := r.ReadQU()
	token := r.ReadS()
	r.ReadH() // entity id, the client learns it from the init packet

	sess := s.sessionByAccount(accountID)
	if sess == nil || sess.uid != uid {
		s.log.Warn("approval for unknown session", zap.Int32("account", accountID))
		return
	}
	w := wire.NewMasterWriter(wire.MasterConnectionApproved)
	w.WriteQU(uid)
	w.WriteS(node.Host)
	w.WriteD(serverPort)
	w.WriteD(sess.active.MapIndex)
	w.WriteS(token)
	sess.conn.Send(w.Bytes(), transport.ReliableOrdered)
}

// handleCharacterReturned persists the final state a node handed back
// and settles the owning session.
func (s *Server) handleCharacterReturned(info wire.CharacterInfo) {
	ctx, cancel := s.dbCtx()
	defer cancel()

	sess := s.sessionByAccount(info.AccountID)
	var row *persist.CharacterRow
	if sess != nil {
		row = sess.characters[info.CharacterID]
	}
	if row == nil {
		row = &persist.CharacterRow{ID: info.CharacterID, AccountID: info.AccountID, Name: info.Name, MapIndex: 0}
	}
	row.Level = int16(info.Level)
	row.Experience = info.Experience
	row.PosX = info.PosX
	row.PosZ = info.PosZ
	row.Health = info.Health
	row.Mana = info.Mana
	if err := s.characters.Update(ctx, row); err != nil {
		s.log.Error("character save failed", zap.String("character", info.Name), zap.Error(err))
	}

	if sess != nil && !sess.parted.IsZero() {
		sess.collected = true
		delete(s.sessions, sess.conn)
		s.log.Info("character collected", zap.String("character", info.Name))
	}
}

func (s *Server) handleCharacterNotFound(characterID int32) {
	for conn, sess := range s.sessions {
		if sess.active != nil && sess.active.ID == characterID && !sess.parted.IsZero() {
			delete(s.sessions, conn)
			s.log.Warn("character lost during handoff", zap.Int32("character", characterID))
			return
		}
	}
}

// handleMapChange moves a character to another map after a teleport.
// The node already pulled the player off its grid; the master persists
// the state and routes the character to a channel of the target map.
func (s *Server) handleMapChange(targetMap int32, info wire.CharacterInfo) {
	sess := s.sessionByAccount(info.AccountID)
	if sess == nil || sess.active == nil || sess.active.ID != info.CharacterID {
		s.log.Warn("map change for unknown session", zap.String("character", info.Name))
		return
	}
	row := sess.active
	if row.MapIndex == targetMap {
		s.log.Warn("map change to the current map ignored",
			zap.String("character", info.Name),
			zap.Int32("map", targetMap))
		return
	}

	row.Level = int16(info.Level)
	row.Experience = info.Experience
	row.PosX = info.PosX
	row.PosZ = info.PosZ
	row.Health = info.Health
	row.Mana = info.Mana
	row.MapIndex = targetMap

	ctx, cancel := s.dbCtx()
	defer cancel()
	if err := s.characters.Update(ctx, row); err != nil {
		s.log.Error("character save failed", zap.String("character", info.Name), zap.Error(err))
	}

	ch := s.registry.LeastLoadedChannel(targetMap)
	if ch == nil {
		s.log.Error("no channel for target map",
			zap.Int32("map", targetMap),
			zap.String("character", info.Name))
		s.sendInformation(sess.conn, wire.SysNoChannelAvailable)
		return
	}
	s.routeToChannel(sess, ch)
}

func (s *Server) senderName(sess *session) string {
	if sess.active != nil {
		return sess.active.Name
	}
	return sess.account.Name
}

func chatMessage(t wire.MasterMsgType, sender, text string) []byte {
	w := wire.NewMasterWriter(t)
	w.WriteS(sender)
	w.WriteS(text)
	return w.Bytes()
}

func (s *Server) handleGlobalChat(sess *session, text string) {
	msg := chatMessage(wire.MasterGlobalChat, s.senderName(sess), text)
	for _, other := range s.sessions {
		if other.parted.IsZero() {
			other.conn.Send(msg, transport.ReliableOrdered)
		}
	}
}

// handleWorldChat reaches everyone whose character is on the same map
// as the sender, across channels.
func (s *Server) handleWorldChat(sess *session, text string) {
	if sess.active == nil {
		return
	}
	msg := chatMessage(wire.MasterWorldChat, s.senderName(sess), text)
	for _, other := range s.sessions {
		if !other.parted.IsZero() || other.active == nil {
			continue
		}
		if other.active.MapIndex == sess.active.MapIndex {
			other.conn.Send(msg, transport.ReliableOrdered)
		}
	}
}

func (s *Server) handlePrivateChat(sess *session, target, text string) {
	msg := chatMessage(wire.MasterPrivateChat, s.senderName(sess), text)
	if other := s.sessionByCharacterName(target); other != nil {
		other.conn.Send(msg, transport.ReliableOrdered)
	}
	// Echo so the sender's log shows the whisper either way.
	sess.conn.Send(msg, transport.ReliableOrdered)
}
