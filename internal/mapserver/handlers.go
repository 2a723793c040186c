package mapserver

import (
	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/geom"
	"github.com/FeXyK/Authory/internal/wire"
	"github.com/FeXyK/Authory/internal/world"
)

const (
	// movementSlack is the per-window allowance on top of the movement
	// speed before a client's reported position is rejected.
	movementSlack = 3.0

	// sqrChannelBreakDistance is how far a caster may drift from where
	// the cast started before it is interrupted.
	sqrChannelBreakDistance = 2.0
)

func (s *Server) handle(p *world.Player, msg []byte) {
	r := wire.NewReader(msg)
	switch r.Type() {
	case wire.MsgPlayerMovement:
		s.handleMovement(p, r)
	case wire.MsgSkillRequest:
		targetID := r.ReadH()
		skillID := world.SkillID(r.ReadC())
		s.handleSkillRequest(p, targetID, skillID)
	case wire.MsgSkillRequestRawPosition:
		skillID := world.SkillID(r.ReadC())
		x, z := r.ReadF(), r.ReadF()
		s.handleSkillRequestAt(p, skillID, geom.New(x, 0, z))
	case wire.MsgRespawn:
		if p.IsDead() {
			p.Respawn()
		}
	case wire.MsgInteract:
		s.handleInteract(p, r.ReadH())
	default:
		s.log.Debug("unhandled message",
			zap.Uint8("type", uint8(r.Type())),
			zap.String("player", p.Name()))
	}
}

// handleMovement applies a client-reported position. The client owns
// its movement but not its speed: the distance covered inside one
// validation window must stay under the movement speed, or the client
// gets snapped back to the last accepted position.
func (s *Server) handleMovement(p *world.Player, r *wire.Reader) {
	qX, qZ := r.ReadH(), r.ReadH()
	qEndX, qEndZ := r.ReadH(), r.ReadH()
	action := wire.ActionType(r.ReadC())

	if p.IsDead() {
		return
	}
	pos := geom.New(s.quant.Dequantize(qX), 0, s.quant.Dequantize(qZ))
	end := geom.New(s.quant.Dequantize(qEndX), 0, s.quant.Dequantize(qEndZ))

	p.DistanceTravelled += geom.Distance(p.Position(), pos)
	if p.DistanceTravelled > p.MovementSpeed()+movementSlack {
		s.SendPositionCorrection(p)
		return
	}

	if p.IsCasting() && geom.SqrDistance(p.ChannelingPosition(), pos) > sqrChannelBreakDistance {
		p.InterruptCasting()
	}

	p.Action = action
	p.SetEndPosition(end)
	p.SetPosition(pos)
}

func (s *Server) handleSkillRequest(p *world.Player, targetID uint16, skillID world.SkillID) {
	if p.IsDead() || p.IsCasting() {
		return
	}
	cell := p.Cell()
	if cell == nil {
		return
	}
	target := cell.Combatant(targetID)
	if target == nil || target.Health().Value <= 0 || !target.IsTargetable() {
		return
	}
	tpl := s.Data.Skills.Skill(skillID)
	if tpl == nil {
		return
	}
	if geom.SqrDistance(p.Position(), target.Position()) > tpl.MaxTargetRange*tpl.MaxTargetRange {
		s.SendSystemInfo(p, wire.SysOutOfRange)
		return
	}
	inst := tpl.Create(p, target, s.Data)
	s.compensateLag(p, inst)
	p.AddSkill(inst)
}

func (s *Server) handleSkillRequestAt(p *world.Player, skillID world.SkillID, pos geom.Vector3) {
	if p.IsDead() || p.IsCasting() {
		return
	}
	tpl := s.Data.Skills.Skill(skillID)
	if tpl == nil {
		return
	}
	inst := tpl.CreateAt(p, pos, s.Data)
	s.compensateLag(p, inst)
	p.AddSkill(inst)
}

// compensateLag shortens the cast by the ticks the request already
// spent in flight, so a laggy client's casts land when its own cast
// bar finishes.
func (s *Server) compensateLag(p *world.Player, inst *world.Skill) {
	if p.Conn == nil {
		return
	}
	rate := s.PlayerTickRate()
	if rate <= 0 {
		return
	}
	ticksInFlight := float32(p.Conn.RTT().Milliseconds()) * rate / 1000
	inst.CastDuration -= float32(int(ticksInFlight))
	if inst.CastDuration < 0 {
		inst.CastDuration = 0
	}
}

func (s *Server) handleInteract(p *world.Player, id uint16) {
	if p.IsDead() {
		return
	}
	cell := p.Cell()
	if cell == nil {
		return
	}
	for _, n := range cell.Neighbours {
		if e := n.Entity(id); e != nil {
			e.Interact(p)
			return
		}
	}
}
