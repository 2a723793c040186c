package world

import (
	"github.com/FeXyK/Authory/internal/geom"
)

// SkillKind selects the behavior a skill instance runs when its cast
// completes.
type SkillKind byte

const (
	// KindDirect damages the target once.
	KindDirect SkillKind = iota
	// KindProjectile travels to the target before hitting, optionally
	// attaching a debuff.
	KindProjectile
	// KindBlink teleports the caster toward the requested position.
	KindBlink
	// KindCellNova damages everything around the caster in its own
	// cell.
	KindCellNova
	// KindAreaBurst damages mobs around the target position across
	// the neighbouring cells.
	KindAreaBurst
	// KindChain hits the target, then bounces to nearby mobs until
	// its depth runs out.
	KindChain
	// KindBuff applies the skill's buff to the target.
	KindBuff
	// KindSelfBuff applies the skill's buff to the caster.
	KindSelfBuff
)

// Skill is both a template and a live instance. Templates are cloned
// from the skill table; Create binds the clone to a caster and scales
// its second-based timings to the caster's tick rate, after which
// Tick drives the state machine until the instance reports
// SkillHandled or SkillInterrupted.
type Skill struct {
	ID             SkillID
	Kind           SkillKind
	School         School
	Cost           CostType
	CostValue      int
	Multiplier     float32
	MaxTargetRange float32
	CastDuration   float32
	Cooldown       float32
	InitialState   SkillState

	ProjectileSpeed float32
	SqrRange        float32
	Depth           int
	SqrBounceRange  float32
	Buff            *Buff
	HookOnHit       string

	State             SkillState
	Caster            Combatant
	Target            Combatant
	TargetPosition    geom.Vector3
	HasTargetPosition bool
	Position          geom.Vector3
	PrevTarget        Combatant

	data *Data
}

// Clone returns an unbound copy of the template. The buff pointer is
// shared; AddBuff copies it before mutating.
func (s *Skill) Clone() *Skill {
	c := *s
	return &c
}

// Create binds the skill to a caster and target.
func (s *Skill) Create(caster, target Combatant, d *Data) *Skill {
	s.Caster = caster
	s.Target = target
	s.data = d
	rate := caster.TickRate()
	s.CastDuration *= rate
	s.Cooldown *= rate
	s.Position = caster.Position()
	s.State = s.InitialState
	if s.State == SkillNone {
		s.State = SkillOnCasting
	}
	return s
}

// CreateAt binds the skill to a caster and a raw world position
// instead of a target entity.
func (s *Skill) CreateAt(caster Combatant, pos geom.Vector3, d *Data) *Skill {
	s.Create(caster, nil, d)
	s.TargetPosition = pos
	s.HasTargetPosition = true
	return s
}

// Tick advances the skill by one entity tick.
func (s *Skill) Tick() {
	switch s.State {
	case SkillOnCasting:
		s.CastDuration--
		if s.CastDuration <= 0 {
			s.State = SkillOnCasted
		}
	case SkillOnCasted:
		s.Caster.SetCasting(false)
		if s.Caster.UseResource(s.Cost, s.CostValue) {
			s.State = SkillOnHit
			s.onCasted()
			s.sendInfo()
		} else {
			s.State = SkillInterrupted
			s.data.Broadcast.SendSkillInterrupt(s.Caster, s.ID)
		}
		s.Cooldown--
	case SkillOnMoving:
		s.onMoving()
		s.Cooldown--
	case SkillOnHit:
		s.State = SkillOnCooldown
		s.apply()
		s.Cooldown--
	case SkillOnCooldown:
		s.Cooldown--
		if s.Cooldown < 1 {
			s.State = SkillHandled
		}
	}
}

func (s *Skill) onCasted() {
	switch s.Kind {
	case KindProjectile:
		s.State = SkillOnMoving
	case KindBlink:
		s.applyBlink()
		s.State = SkillOnCooldown
	}
}

func (s *Skill) sendInfo() {
	switch s.Kind {
	case KindChain:
		s.data.Broadcast.SendSkillCastAt(s, s.PrevTarget)
	case KindBlink:
	default:
		s.data.Broadcast.SendSkillCast(s)
	}
}

func (s *Skill) onMoving() {
	if s.Target == nil {
		s.State = SkillHandled
		return
	}
	step := s.ProjectileSpeed / s.Caster.TickRate()
	target := s.Target.Position()
	s.Position = s.Position.Add(s.Position.DirectionTo(target).Scale(step))
	if geom.SqrDistance(s.Position, target) < 1 {
		s.State = SkillOnHit
	}
}

func (s *Skill) apply() {
	switch s.Kind {
	case KindDirect:
		if s.Target == nil {
			return
		}
		s.Target.TakeDamage(s.School, s.Multiplier, s.Caster)
		s.runHook()
	case KindProjectile:
		if s.Target == nil {
			return
		}
		s.Target.TakeDamage(s.School, s.Multiplier, s.Caster)
		if s.Buff != nil {
			s.Target.AddBuff(*s.Buff)
		}
		s.runHook()
	case KindBuff:
		if s.Target != nil && s.Buff != nil {
			s.Target.AddBuff(*s.Buff)
		}
	case KindSelfBuff:
		if s.Buff != nil {
			s.Caster.AddBuff(*s.Buff)
		}
	case KindCellNova:
		s.applyNova()
	case KindAreaBurst:
		s.applyBurst()
	case KindChain:
		s.applyChain()
	}
}

// applyNova hits every combatant around the caster in its own cell.
// The strike scales on the caster's Strength twice: once as the
// multiplier and once through the physical damage formula.
func (s *Skill) applyNova() {
	cell := s.Caster.Cell()
	if cell == nil {
		return
	}
	origin := s.Caster.Position()
	sqrRange := s.MaxTargetRange * s.MaxTargetRange
	multiplier := float32(s.Caster.Attr(Strength))
	hit := func(e Combatant) {
		if e == s.Caster || e.Health().Value <= 0 {
			return
		}
		if geom.SqrDistance(origin, e.Position()) <= sqrRange {
			e.TakeDamage(s.School, multiplier, s.Caster)
		}
	}
	cell.Mobs.Range(func(_ uint16, m Combatant) bool {
		hit(m)
		return true
	})
	cell.Players.Range(func(_ uint16, p *Player) bool {
		hit(p)
		return true
	})
}

func (s *Skill) applyBurst() {
	center := s.TargetPosition
	if !s.HasTargetPosition {
		if s.Target == nil {
			return
		}
		center = s.Target.Position()
	}
	cell := s.data.CellAt(center)
	if cell == nil {
		return
	}
	for _, n := range cell.Neighbours {
		n.Mobs.Range(func(_ uint16, m Combatant) bool {
			if m.Health().Value > 0 && geom.SqrDistance(center, m.Position()) < s.SqrRange {
				m.TakeDamage(s.School, s.Multiplier, s.Caster)
			}
			return true
		})
	}
	s.runHook()
}

func (s *Skill) applyChain() {
	if s.Target == nil {
		return
	}
	s.Target.TakeDamage(s.School, s.Multiplier, s.Caster)
	if s.Buff != nil {
		s.Target.AddBuff(*s.Buff)
	}
	s.runHook()
	s.Depth--
	if s.Depth <= 0 {
		return
	}
	cell := s.Target.Cell()
	if cell == nil {
		return
	}
	from := s.Target.Position()
	var next Combatant
	for _, n := range cell.Neighbours {
		n.Mobs.Range(func(_ uint16, m Combatant) bool {
			if m == s.Target || m.Health().Value <= 0 {
				return true
			}
			if geom.SqrDistance(from, m.Position()) < s.SqrBounceRange {
				next = m
				return false
			}
			return true
		})
		if next != nil {
			break
		}
	}
	if next != nil {
		s.PrevTarget = s.Target
		s.Target = next
		s.State = SkillOnCasted
	}
}

func (s *Skill) applyBlink() {
	dest := s.TargetPosition
	if !s.HasTargetPosition {
		if s.Target == nil {
			return
		}
		dest = s.Target.Position()
	}
	origin := s.Caster.Position()
	if geom.Distance(origin, dest) > s.MaxTargetRange {
		dest = origin.Add(origin.DirectionTo(dest).Scale(s.MaxTargetRange))
	}
	s.Caster.SetPosition(dest)
	s.data.Broadcast.SendTeleport(s.Caster)
}

func (s *Skill) runHook() {
	if s.HookOnHit != "" && s.data.Scripts != nil {
		s.data.Scripts.OnSkillHit(s.HookOnHit, s.Caster, s.Target, s)
	}
}
