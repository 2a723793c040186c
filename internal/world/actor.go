package world

import (
	"math/rand"

	"github.com/FeXyK/Authory/internal/geom"
)

// actor carries the state shared by every combatant. Player and Mob
// embed it and shadow the methods they specialize; the self reference
// makes buff and skill callbacks land on the concrete type.
type actor struct {
	self Combatant
	data *Data

	id    uint16
	name  string
	model ModelType
	level byte

	pos       geom.Vector3
	endPos    geom.Vector3
	direction geom.Vector3
	speed     float32
	baseSpeed float32

	health Resource
	mana   Resource
	attrs  [attrCount]int
	armor  int

	buffs  []Buff
	skills []*Skill

	entityTick int64
	casting    bool
	channelPos geom.Vector3
	targetable bool

	cell *GridCell
}

func (a *actor) ID() uint16                       { return a.id }
func (a *actor) SetID(id uint16)                  { a.id = id }
func (a *actor) Name() string                     { return a.name }
func (a *actor) Model() ModelType                 { return a.model }
func (a *actor) Level() byte                      { return a.level }
func (a *actor) Position() geom.Vector3           { return a.pos }
func (a *actor) EndPosition() geom.Vector3        { return a.endPos }
func (a *actor) MovementSpeed() float32           { return a.speed }
func (a *actor) SetMovementSpeed(speed float32)   { a.speed = speed }
func (a *actor) BaseMovementSpeed() float32       { return a.baseSpeed }
func (a *actor) Health() *Resource                { return &a.health }
func (a *actor) Mana() *Resource                  { return &a.mana }
func (a *actor) Attr(at Attribute) int            { return a.attrs[at] }
func (a *actor) SetAttr(at Attribute, v int)      { a.attrs[at] = v }
func (a *actor) EntityTick() int64                { return a.entityTick }
func (a *actor) IsCasting() bool                  { return a.casting }
func (a *actor) SetCasting(casting bool)          { a.casting = casting }
func (a *actor) IsTargetable() bool               { return a.targetable }
func (a *actor) ChannelingPosition() geom.Vector3 { return a.channelPos }
func (a *actor) Cell() *GridCell                  { return a.cell }

func (a *actor) SetCell(c *GridCell) {
	a.cell = c
	a.data.Broadcast.SendFullEntityUpdate(a.self)
}

func (a *actor) SetPosition(pos geom.Vector3) {
	a.pos = pos
}

// CalculateResources derives the resource pools from the attributes.
// Shadowing types call this and layer their own rules on top.
func (a *actor) CalculateResources() {
	a.health.Max = 500 + a.attrs[Endurance]*20
	a.mana.Max = 500 + a.attrs[Knowledge]*35
	a.health.Regen = a.health.Max / 100
	a.mana.Regen = a.mana.Max / 100
	if a.health.Value > a.health.Max {
		a.health.Value = a.health.Max
	}
	if a.mana.Value > a.mana.Max {
		a.mana.Value = a.mana.Max
	}
}

func (a *actor) regen() {
	a.self.AddHealth(a.health.Regen)
	a.self.AddMana(a.mana.Regen)
}

func (a *actor) AddHealth(value int) {
	a.health.Value += value
	if a.health.Value > a.health.Max {
		a.health.Value = a.health.Max
	}
}

func (a *actor) AddMana(value int) {
	a.mana.Value += value
	if a.mana.Value > a.mana.Max {
		a.mana.Value = a.mana.Max
	}
}

// TakeDamage applies school-scaled damage from caster. Elemental
// schools scale on the caster's Intelligence; Physical scales on
// Strength and is reduced by armor, with a floor of 10 so a hit never
// heals or whiffs entirely.
func (a *actor) TakeDamage(school School, multiplier float32, caster Combatant) {
	var damage int
	if school.Elemental() {
		damage = int(multiplier * float32(caster.Attr(Intelligence)))
	} else {
		damage = int(multiplier*float32(caster.Attr(Strength))) - a.armor
	}
	if damage <= 0 {
		damage = 10
	}
	critical := caster.Attr(Luck) >= rand.Intn(100)
	if critical {
		damage *= 2
	}
	if damage > a.health.Value {
		damage = a.health.Value
	}
	a.health.Value -= damage
	if damage > 0 {
		a.data.Broadcast.SendDamageInfo(caster, a.self, damage, school, critical)
	}
	if a.health.Value <= 0 {
		a.data.Broadcast.SendDeath(a.self)
	}
}

func (a *actor) TakeTrueDamage(value int) {
	if value > a.health.Value {
		value = a.health.Value
	}
	a.health.Value -= value
	if a.health.Value <= 0 {
		a.data.Broadcast.SendDeath(a.self)
	}
}

// UseResource consumes the cast cost. Health costs must leave the
// caster alive.
func (a *actor) UseResource(cost CostType, amount int) bool {
	switch cost {
	case CostMana:
		if a.mana.Value >= amount {
			a.self.AddMana(-amount)
			return true
		}
	case CostHealth:
		if a.health.Value > amount {
			a.self.TakeTrueDamage(amount)
			return true
		}
	}
	return false
}

// AddExperience is a no-op for anything that does not level from
// kills; Player shadows it.
func (a *actor) AddExperience(amount int64) {}

// AddBuff applies a buff or refreshes its timer when the same buff is
// already active. A refresh keeps the original apply effect in place
// so stat bonuses never stack from re-application.
func (a *actor) AddBuff(b Buff) {
	b.scaleDuration(a.self.TickRate())
	for i := range a.buffs {
		if a.buffs[i].ID == b.ID {
			b.applied = a.buffs[i].applied
			b.setExpiration(a.entityTick)
			a.buffs[i] = b
			a.data.Broadcast.SendBuffRefresh(a.self, &a.buffs[i])
			a.self.CalculateResources()
			return
		}
	}
	b.setExpiration(a.entityTick)
	b.onApply(a.self)
	a.buffs = append(a.buffs, b)
	a.data.Broadcast.SendBuffApply(a.self, &a.buffs[len(a.buffs)-1])
	a.self.CalculateResources()
}

func (a *actor) removeBuff(i int) {
	a.buffs[i].onEnd(a.self)
	a.data.Broadcast.SendBuffRemove(a.self, &a.buffs[i])
	a.buffs = append(a.buffs[:i], a.buffs[i+1:]...)
	a.self.CalculateResources()
}

func (a *actor) clearBuffs() {
	for i := len(a.buffs) - 1; i >= 0; i-- {
		a.removeBuff(i)
	}
}

func (a *actor) buffTick() {
	for i := len(a.buffs) - 1; i >= 0; i-- {
		a.buffs[i].onTick(a.self)
		if a.buffs[i].ExpirationTick < a.entityTick {
			a.removeBuff(i)
		}
	}
}

// AddSkill starts casting s. It is rejected while another instance of
// the same skill is still on cooldown.
func (a *actor) AddSkill(s *Skill) bool {
	for _, active := range a.skills {
		if active.ID == s.ID && active.Cooldown > 0 {
			return false
		}
	}
	a.casting = true
	a.channelPos = a.pos
	a.skills = append(a.skills, s)
	a.data.Broadcast.SendCasting(a.self)
	a.data.Broadcast.SendEntityUpdate(a.self)
	return true
}

func (a *actor) skillTick() {
	for i := len(a.skills) - 1; i >= 0; i-- {
		a.skills[i].Tick()
		switch a.skills[i].State {
		case SkillHandled, SkillInterrupted:
			a.skills = append(a.skills[:i], a.skills[i+1:]...)
		}
	}
}

func (a *actor) clearSkills() {
	a.skills = a.skills[:0]
	a.casting = false
}

// InterruptCasting aborts every skill still in its cast phase.
func (a *actor) InterruptCasting() {
	for _, s := range a.skills {
		if s.State == SkillOnCasting {
			s.State = SkillInterrupted
			a.data.Broadcast.SendSkillInterrupt(a.self, s.ID)
		}
	}
	a.casting = false
}

func (a *actor) Interact(p *Player) {}
