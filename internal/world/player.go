package world

import (
	"github.com/FeXyK/Authory/internal/geom"
	"github.com/FeXyK/Authory/internal/transport"
	"github.com/FeXyK/Authory/internal/wire"
)

const (
	// defaultPlayerSpeed is the movement speed a fresh character
	// reports to the client and the anti-cheat baseline.
	defaultPlayerSpeed = 20

	// respawnOffset places a respawned player away from the cell edge.
	respawnOffset = 50
)

// Player is the server-side entity of a connected character. Movement
// is client-driven and validated; everything else is authoritative.
type Player struct {
	actor

	UID         uint64
	AccountID   int32
	CharacterID int32
	Conn        transport.Conn

	Action            wire.ActionType
	Experience        int64
	MaxExperience     int64
	DirtyPos          bool
	DistanceTravelled float32

	dead bool
}

func NewPlayer(d *Data, name string, model ModelType, level byte) *Player {
	p := &Player{}
	p.self = p
	p.data = d
	p.name = name
	p.model = model
	p.level = level
	p.armor = 300
	p.speed = defaultPlayerSpeed
	p.baseSpeed = defaultPlayerSpeed
	p.CalculateResources()
	p.health.SetFull()
	p.mana.SetFull()
	return p
}

func (p *Player) TickRate() float32 {
	return p.data.Rates.PlayerTickRate()
}

func (p *Player) IsDead() bool { return p.dead }

// Tick runs one simulation step. Targetability is held back for the
// first seconds after entering a map so a loading client cannot be
// killed.
func (p *Player) Tick() {
	if p.entityTick%20 == 0 {
		p.DistanceTravelled = 0
	}
	if !p.dead {
		if p.entityTick%60 == 0 {
			p.regen()
		}
		p.skillTick()
		p.buffTick()
	} else {
		p.clearBuffs()
		p.clearSkills()
	}
	if p.entityTick > 50 {
		p.targetable = true
	}
	p.entityTick++
}

// CalculateResources derives everything from the level: a character's
// attributes are purely level-driven.
func (p *Player) CalculateResources() {
	p.armor = 100 * int(p.level)
	p.MaxExperience = int64(p.level) * int64(p.level) * 100
	for a := Attribute(0); a < attrCount; a++ {
		p.attrs[a] = 20 + int(p.level)*10
	}
	for i := range p.buffs {
		if p.buffs[i].applied {
			reapplyAttrs(&p.buffs[i], p)
		}
	}
	p.actor.CalculateResources()
	p.health.Regen = 10000
	p.data.Broadcast.SendAttributeUpdate(p)
}

// reapplyAttrs restores a buff's attribute bonus after the
// level-driven reset wiped it.
func reapplyAttrs(b *Buff, e Combatant) {
	switch b.ApplyEffect {
	case EffectIncreaseEndurance:
		e.SetAttr(Endurance, e.Attr(Endurance)+b.ApplyValue)
	case EffectIncreaseKnowledge:
		e.SetAttr(Knowledge, e.Attr(Knowledge)+b.ApplyValue)
	case EffectRage, EffectAllAttributes:
		for a := Attribute(0); a < attrCount; a++ {
			e.SetAttr(a, e.Attr(a)+b.ApplyValue)
		}
	}
}

func (p *Player) UseResource(cost CostType, amount int) bool {
	if !p.actor.UseResource(cost, amount) {
		p.data.Broadcast.SendSystemInfo(p, wire.SysNotEnoughMana)
		return false
	}
	return true
}

func (p *Player) TakeDamage(school School, multiplier float32, caster Combatant) {
	p.actor.TakeDamage(school, multiplier, caster)
	p.data.Broadcast.SendEntityUpdate(p)
	if p.health.Value <= 0 {
		p.dead = true
		p.data.Broadcast.SendSystemInfo(p, wire.SysYouAreDead)
	}
}

func (p *Player) TakeTrueDamage(value int) {
	p.actor.TakeTrueDamage(value)
	p.data.Broadcast.SendEntityUpdate(p)
	if p.health.Value <= 0 {
		p.dead = true
		p.data.Broadcast.SendSystemInfo(p, wire.SysYouAreDead)
	}
}

// Kill puts the player down instantly, used when it falls off the map.
func (p *Player) Kill() {
	p.health.Value = 0
	p.dead = true
	p.data.Broadcast.SendSystemInfo(p, wire.SysYouAreDead)
	p.data.Broadcast.SendDeath(p)
}

// Respawn revives the player at the anchor point of its current cell.
func (p *Player) Respawn() {
	p.Action = wire.ActionIdle
	p.health.SetFull()
	p.mana.SetFull()
	p.dead = false
	if p.cell != nil {
		p.pos = geom.New(p.cell.Area.X+respawnOffset, 0, p.cell.Area.Z+respawnOffset)
		p.endPos = p.pos
		p.DirtyPos = true
	}
	p.data.Broadcast.SendPlayerRespawn(p)
}

func (p *Player) SetPosition(pos geom.Vector3) {
	p.pos = pos
	p.DirtyPos = true
	if p.cell != nil && !p.cell.Area.Contains(pos) {
		p.data.ReAddPlayer(p)
	}
}

// SetEndPosition records where the client says it is heading.
func (p *Player) SetEndPosition(pos geom.Vector3) {
	p.endPos = pos
}

func (p *Player) AddExperience(amount int64) {
	p.Experience += amount
	if p.Experience >= p.MaxExperience {
		p.LevelUp()
	} else {
		p.data.Broadcast.SendExperienceInfo(p)
	}
}

func (p *Player) LevelUp() {
	p.Experience -= p.MaxExperience
	p.level++
	p.MaxExperience = int64(p.level) * int64(p.level) * 100
	p.data.Broadcast.SendLevelUp(p)
	p.data.Broadcast.SendLevelUpInfo(p)
	p.CalculateResources()
}
