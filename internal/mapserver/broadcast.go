package mapserver

import (
	"github.com/FeXyK/Authory/internal/transport"
	"github.com/FeXyK/Authory/internal/wire"
	"github.com/FeXyK/Authory/internal/world"
)

// The Server is the world's Broadcaster: every simulation event turns
// into wire messages here. State updates that a later update
// supersedes go out unreliable; everything a client must not miss goes
// out reliable.

func (s *Server) sendTo(p *world.Player, payload []byte, d transport.Delivery) {
	if p.Conn == nil {
		return
	}
	p.Conn.Send(payload, d)
}

func (s *Server) sendToNeighbours(cell *world.GridCell, payload []byte, d transport.Delivery) {
	if cell == nil {
		return
	}
	for _, n := range cell.Neighbours {
		n.Players.Range(func(_ uint16, p *world.Player) bool {
			s.sendTo(p, payload, d)
			return true
		})
	}
}

func (s *Server) sendToAll(payload []byte, d transport.Delivery) {
	s.Data.PlayersByID.Range(func(_ uint16, p *world.Player) bool {
		s.sendTo(p, payload, d)
		return true
	})
}

// writeEntity appends the full on-wire shape of a combatant.
func (s *Server) writeEntity(w *wire.Writer, e world.Combatant) {
	pos := e.Position()
	end := e.EndPosition()
	w.WriteH(e.ID())
	w.WriteS(e.Name())
	w.WriteC(e.Level())
	w.WriteH(uint16(e.Health().Max))
	w.WriteH(uint16(e.Health().Value))
	w.WriteH(uint16(e.MovementSpeed()))
	w.WriteH(s.quant.Quantize(pos.X))
	w.WriteH(s.quant.Quantize(pos.Z))
	w.WriteH(s.quant.Quantize(end.X))
	w.WriteH(s.quant.Quantize(end.Z))
	w.WriteC(byte(e.Model()))
}

// sendPlayerInit ships a freshly admitted player its own full state:
// identity, pools, attributes, position and the world extent the
// client quantizes against.
func (s *Server) sendPlayerInit(p *world.Player) {
	pos := p.Position()
	w := wire.NewWriter(wire.MsgPlayerID)
	w.WriteH(p.ID())
	w.WriteS(p.Name())
	w.WriteD(int32(p.Health().Max))
	w.WriteD(int32(p.Health().Value))
	w.WriteD(int32(p.Mana().Max))
	w.WriteD(int32(p.Mana().Value))
	w.WriteC(p.Level())
	w.WriteC(byte(p.Model()))
	w.WriteF(pos.X)
	w.WriteF(pos.Z)
	w.WriteF(p.MovementSpeed())
	for a := world.Endurance; a <= world.Luck; a++ {
		w.WriteH(uint16(p.Attr(a)))
	}
	w.WriteQ(p.Experience)
	w.WriteQ(p.MaxExperience)
	w.WriteF(s.Data.Extent)
	s.sendTo(p, w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendEntityUpdate(e world.Combatant) {
	t := wire.MsgMobUpdate
	if _, ok := e.(*world.Player); ok {
		t = wire.MsgPlayerUpdate
	}
	w := wire.NewWriter(t)
	w.WriteH(e.ID())
	w.WriteH(uint16(e.Health().Value))
	w.WriteH(uint16(e.Mana().Value))
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.UnreliableSequenced)
}

func (s *Server) SendFullEntityUpdate(e world.Combatant) {
	w := wire.NewWriter(wire.MsgFullEntityUpdate)
	s.writeEntity(w, e)
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableUnordered)
}

// SendAttributeUpdate refreshes a player's own stat sheet. Bystanders
// only ever see the derived pools, so mobs have nothing to send.
func (s *Server) SendAttributeUpdate(e world.Combatant) {
	p, ok := e.(*world.Player)
	if !ok {
		return
	}
	w := wire.NewWriter(wire.MsgAttributeUpdate)
	w.WriteH(p.ID())
	w.WriteH(uint16(p.Health().Max))
	w.WriteH(uint16(p.Health().Value))
	w.WriteH(uint16(p.Mana().Max))
	w.WriteH(uint16(p.Mana().Value))
	for a := world.Endurance; a <= world.Luck; a++ {
		w.WriteH(uint16(p.Attr(a)))
	}
	s.sendTo(p, w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendMovementSpeed(e world.Combatant) {
	w := wire.NewWriter(wire.MsgMovementSpeed)
	w.WriteH(e.ID())
	w.WriteF(e.MovementSpeed())
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendTeleport(e world.Combatant) {
	pos := e.Position()
	w := wire.NewWriter(wire.MsgTeleport)
	w.WriteH(e.ID())
	w.WriteH(s.quant.Quantize(pos.X))
	w.WriteH(s.quant.Quantize(pos.Z))
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendMobMovement(e world.Combatant) {
	pos := e.Position()
	end := e.EndPosition()
	w := wire.NewWriter(wire.MsgMobMovementToPosition)
	w.WriteH(e.ID())
	w.WriteH(s.quant.Quantize(pos.X))
	w.WriteH(s.quant.Quantize(pos.Z))
	w.WriteH(s.quant.Quantize(end.X))
	w.WriteH(s.quant.Quantize(end.Z))
	w.WriteH(uint16(e.MovementSpeed()))
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.UnreliableSequenced)
}

func (s *Server) SendDeath(e world.Combatant) {
	w := wire.NewWriter(wire.MsgDeath)
	w.WriteH(e.ID())
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableUnordered)
}

func (s *Server) SendRespawn(e world.Combatant) {
	w := wire.NewWriter(wire.MsgMobRespawn)
	s.writeEntity(w, e)
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableUnordered)
}

func (s *Server) SendPlayerRespawn(p *world.Player) {
	pos := p.Position()
	w := wire.NewWriter(wire.MsgRespawn)
	w.WriteH(p.ID())
	w.WriteH(s.quant.Quantize(pos.X))
	w.WriteH(s.quant.Quantize(pos.Z))
	s.sendToNeighbours(p.Cell(), w.Bytes(), transport.ReliableOrdered)
	s.SendAttributeUpdate(p)
}

// SendDamageInfo reports a hit to the two parties that render it: the
// dealer's combat log and the victim's screen.
func (s *Server) SendDamageInfo(dealer, victim world.Combatant, damage int, school world.School, critical bool) {
	w := wire.NewWriter(wire.MsgDamageInfo)
	w.WriteH(victim.ID())
	w.WriteD(int32(damage))
	w.WriteC(byte(school))
	w.WriteBool(critical)
	if p, ok := dealer.(*world.Player); ok {
		s.sendTo(p, w.Bytes(), transport.ReliableUnordered)
	}
	if p, ok := victim.(*world.Player); ok {
		s.sendTo(p, w.Bytes(), transport.ReliableUnordered)
	}
}

func (s *Server) SendCasting(e world.Combatant) {
	w := wire.NewWriter(wire.MsgCasting)
	w.WriteH(e.ID())
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendSkillCast(sk *world.Skill) {
	var w *wire.Writer
	if sk.HasTargetPosition {
		w = wire.NewWriter(wire.MsgSkillInfoAlternativePosition)
		w.WriteH(sk.Caster.ID())
		w.WriteC(byte(sk.ID))
		w.WriteH(s.quant.Quantize(sk.TargetPosition.X))
		w.WriteH(s.quant.Quantize(sk.TargetPosition.Z))
	} else {
		w = wire.NewWriter(wire.MsgSkillInfo)
		w.WriteH(sk.Caster.ID())
		var targetID uint16
		if sk.Target != nil {
			targetID = sk.Target.ID()
		}
		w.WriteH(targetID)
		w.WriteC(byte(sk.ID))
	}
	s.sendToNeighbours(sk.Caster.Cell(), w.Bytes(), transport.ReliableOrdered)
}

// SendSkillCastAt announces a bounce: the effect originates at prev
// instead of the caster, so clients draw the arc between the hops.
func (s *Server) SendSkillCastAt(sk *world.Skill, prev world.Combatant) {
	source := sk.Caster
	if prev != nil {
		source = prev
	}
	var targetID uint16
	cell := sk.Caster.Cell()
	if sk.Target != nil {
		targetID = sk.Target.ID()
		cell = sk.Target.Cell()
	}
	w := wire.NewWriter(wire.MsgSkillInfo)
	w.WriteH(source.ID())
	w.WriteH(targetID)
	w.WriteC(byte(sk.ID))
	s.sendToNeighbours(cell, w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendSkillInterrupt(e world.Combatant, id world.SkillID) {
	w := wire.NewWriter(wire.MsgSkillInterrupt)
	w.WriteH(e.ID())
	w.WriteC(byte(id))
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendBuffApply(e world.Combatant, b *world.Buff) {
	s.sendBuff(wire.MsgBuffApply, e, b)
}

func (s *Server) SendBuffRefresh(e world.Combatant, b *world.Buff) {
	s.sendBuff(wire.MsgBuffRefresh, e, b)
}

func (s *Server) SendBuffRemove(e world.Combatant, b *world.Buff) {
	w := wire.NewWriter(wire.MsgBuffRemove)
	w.WriteH(e.ID())
	w.WriteC(byte(b.ID))
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) sendBuff(t wire.MsgType, e world.Combatant, b *world.Buff) {
	w := wire.NewWriter(t)
	w.WriteH(e.ID())
	w.WriteC(byte(b.ID))
	w.WriteQ(b.Remaining(e.EntityTick()))
	s.sendToNeighbours(e.Cell(), w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendSystemInfo(p *world.Player, msg wire.SystemMsg) {
	w := wire.NewWriter(wire.MsgSystemInfo)
	w.WriteC(byte(msg))
	s.sendTo(p, w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendLevelUp(p *world.Player) {
	w := wire.NewWriter(wire.MsgLevelUp)
	w.WriteH(p.ID())
	w.WriteC(p.Level())
	s.sendToNeighbours(p.Cell(), w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendLevelUpInfo(p *world.Player) {
	w := wire.NewWriter(wire.MsgUpdateMaxExperience)
	w.WriteQ(p.Experience)
	w.WriteQ(p.MaxExperience)
	w.WriteC(p.Level())
	s.sendTo(p, w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendExperienceInfo(p *world.Player) {
	w := wire.NewWriter(wire.MsgUpdateExperience)
	w.WriteQ(p.Experience)
	s.sendTo(p, w.Bytes(), transport.ReliableOrdered)
}

// SendPositionCorrection snaps a client back to the last position the
// server accepted.
func (s *Server) SendPositionCorrection(p *world.Player) {
	pos := p.Position()
	w := wire.NewWriter(wire.MsgPositionCorrection)
	w.WriteH(s.quant.Quantize(pos.X))
	w.WriteH(s.quant.Quantize(pos.Z))
	s.sendTo(p, w.Bytes(), transport.ReliableOrdered)
}

// SendGridEntities ships every combatant in the player's neighbourhood
// as full entity packages, chunked so no single message outgrows the
// payload cap.
func (s *Server) SendGridEntities(p *world.Player) {
	cell := p.Cell()
	if cell == nil {
		return
	}
	w := wire.NewWriter(wire.MsgGridFullEntityUpdate)
	w.WriteH(0)
	count := 0
	flush := func() {
		if count == 0 {
			return
		}
		w.PatchH(1, uint16(count))
		s.sendTo(p, w.Bytes(), transport.ReliableOrdered)
		w = wire.NewWriter(wire.MsgGridFullEntityUpdate)
		w.WriteH(0)
		count = 0
	}
	emit := func(e world.Combatant) {
		s.writeEntity(w, e)
		count++
		if w.Len() >= wire.MaxChunkPayload {
			flush()
		}
	}
	for _, n := range cell.Neighbours {
		n.Players.Range(func(_ uint16, other *world.Player) bool {
			emit(other)
			return true
		})
		n.Mobs.Range(func(_ uint16, m world.Combatant) bool {
			emit(m)
			return true
		})
	}
	flush()
}

func (s *Server) SendGridResources(p *world.Player) {
	cell := p.Cell()
	if cell == nil {
		return
	}
	w := wire.NewWriter(wire.MsgGridResourceEntityFullUpdate)
	countOff := w.Len()
	w.WriteH(0)
	count := 0
	for _, n := range cell.Neighbours {
		n.Resources.Range(func(_ uint16, e world.Entity) bool {
			pos := e.Position()
			w.WriteH(e.ID())
			w.WriteS(e.Name())
			w.WriteH(s.quant.Quantize(pos.X))
			w.WriteH(s.quant.Quantize(pos.Z))
			w.WriteC(byte(e.Model()))
			count++
			return true
		})
	}
	if count == 0 {
		return
	}
	w.PatchH(countOff, uint16(count))
	s.sendTo(p, w.Bytes(), transport.ReliableOrdered)
}

func (s *Server) SendMapChangeRequest(p *world.Player, mapIndex int32) {
	if s.MapChange == nil {
		return
	}
	s.MapChange(p, mapIndex)
}
