package world

import (
	"github.com/FeXyK/Authory/internal/geom"
	"github.com/FeXyK/Authory/internal/wire"
)

// Broadcaster delivers simulation events to clients. The map server
// implements it over the transport layer; tests swap in a no-op fake.
type Broadcaster interface {
	SendEntityUpdate(e Combatant)
	SendFullEntityUpdate(e Combatant)
	SendAttributeUpdate(e Combatant)
	SendMovementSpeed(e Combatant)
	SendTeleport(e Combatant)
	SendMobMovement(e Combatant)
	SendDeath(e Combatant)
	SendRespawn(e Combatant)
	SendPlayerRespawn(p *Player)
	SendDamageInfo(dealer, victim Combatant, damage int, school School, critical bool)
	SendCasting(e Combatant)
	SendSkillCast(s *Skill)
	SendSkillCastAt(s *Skill, prev Combatant)
	SendSkillInterrupt(e Combatant, id SkillID)
	SendBuffApply(e Combatant, b *Buff)
	SendBuffRefresh(e Combatant, b *Buff)
	SendBuffRemove(e Combatant, b *Buff)
	SendSystemInfo(p *Player, msg wire.SystemMsg)
	SendLevelUp(p *Player)
	SendLevelUpInfo(p *Player)
	SendExperienceInfo(p *Player)
	SendPositionCorrection(p *Player)
	SendGridEntities(p *Player)
	SendGridResources(p *Player)
	SendMapChangeRequest(p *Player, mapIndex int32)
}

// RateSource reports the measured ticks per second of the two
// simulation loops. Durations given in seconds are multiplied by the
// rate to obtain tick counts.
type RateSource interface {
	PlayerTickRate() float32
	MobTickRate() float32
}

// SkillSource hands out fresh skill instances by id.
type SkillSource interface {
	Skill(id SkillID) *Skill
}

// ScriptRunner runs data-driven hooks attached to skills.
type ScriptRunner interface {
	OnSkillHit(hook string, caster, target Combatant, s *Skill)
}

// Entity is anything that occupies a grid cell.
type Entity interface {
	ID() uint16
	SetID(uint16)
	Name() string
	Model() ModelType
	Position() geom.Vector3
	Cell() *GridCell
	SetCell(c *GridCell)
	Tick()
	Interact(p *Player)
}

// Combatant is an entity that participates in combat: it has
// resources, attributes, and runs skills and buffs.
type Combatant interface {
	Entity

	Level() byte
	Health() *Resource
	Mana() *Resource
	EndPosition() geom.Vector3
	MovementSpeed() float32
	SetMovementSpeed(speed float32)
	BaseMovementSpeed() float32
	Attr(a Attribute) int
	SetAttr(a Attribute, v int)
	EntityTick() int64
	TickRate() float32
	IsCasting() bool
	SetCasting(casting bool)
	IsTargetable() bool
	ChannelingPosition() geom.Vector3

	SetPosition(pos geom.Vector3)
	AddBuff(b Buff)
	AddSkill(s *Skill) bool
	TakeDamage(school School, multiplier float32, caster Combatant)
	TakeTrueDamage(value int)
	AddHealth(value int)
	AddMana(value int)
	UseResource(cost CostType, amount int) bool
	AddExperience(amount int64)
	CalculateResources()
	Respawn()
}
