package world

import (
	"math/rand"

	"github.com/FeXyK/Authory/internal/geom"
)

const (
	minWanderDistance = 10
	maxWanderDistance = 20

	// mobRespawnTicks is how long a mob corpse lies around.
	mobRespawnTicks = 600

	// sqrAggroRange is the squared pull radius around a mob.
	sqrAggroRange = 20 * 20

	// sqrMaxLeashDistance is the squared distance from spawn beyond
	// which a mob gives up and walks home.
	sqrMaxLeashDistance = 100 * 100

	// attackCooldownTicks spaces out a mob's attack attempts.
	attackCooldownTicks = 30

	// mobGrowthLevelCap stops the level-per-respawn growth.
	mobGrowthLevelCap = 10
)

// MobTemplate is the data-table shape of a mob. A zero MaxHealth
// means the pools derive from the attributes.
type MobTemplate struct {
	Name          string
	Model         ModelType
	Level         byte
	Attrs         [attrCount]int
	MovementSpeed float32
	SkillID       SkillID
	MaxHealth     int
	HealthRegen   int
}

// Mob is a server-driven entity. It wanders near its spawn, pulls
// players that come close, chases and attacks its target, and leashes
// back when dragged too far.
type Mob struct {
	actor

	template *MobTemplate
	spawn    geom.Vector3
	mobSkill *Skill

	target           Combatant
	deathTimer       int
	attackReadyTick  int64
	actionTick       int64
	resetting        bool
	sqrDistFromSpawn float32
}

func NewMob(d *Data, tpl *MobTemplate, spawn geom.Vector3) *Mob {
	m := &Mob{template: tpl, spawn: spawn}
	m.self = m
	m.data = d
	m.name = tpl.Name
	m.model = tpl.Model
	m.level = tpl.Level
	m.attrs = tpl.Attrs
	m.speed = tpl.MovementSpeed
	m.baseSpeed = tpl.MovementSpeed
	m.pos = spawn
	m.endPos = spawn
	m.targetable = true
	m.actionTick = 300 + rand.Int63n(40)
	if d.Skills != nil {
		m.mobSkill = d.Skills.Skill(tpl.SkillID)
	}
	m.CalculateResources()
	m.health.SetFull()
	m.mana.SetFull()
	return m
}

func (m *Mob) TickRate() float32 {
	return m.data.Rates.MobTickRate()
}

func (m *Mob) Target() Combatant { return m.target }

func (m *Mob) SetTarget(t Combatant) { m.target = t }

func (m *Mob) CalculateResources() {
	m.actor.CalculateResources()
	if m.template.MaxHealth > 0 {
		m.health.Max = m.template.MaxHealth
		m.health.Regen = m.template.HealthRegen
	}
	if m.health.Value > m.health.Max {
		m.health.Value = m.health.Max
	}
}

// Tick runs one step of the mob brain.
func (m *Mob) Tick() {
	m.entityTick++

	if m.resetting {
		m.moveByDirection()
		m.regen()
		m.target = nil
		if geom.SqrDistance(m.pos, m.endPos) < 1 {
			m.resetting = false
		}
		return
	}

	if m.health.Value <= 0 {
		m.deathTimer++
		if m.deathTimer > mobRespawnTicks {
			m.Respawn()
		}
		return
	}

	m.buffTick()
	m.skillTick()
	m.regen()
	if m.casting {
		return
	}

	if m.target == nil {
		m.acquireTarget()
		if m.target == nil && m.entityTick%m.actionTick == 0 {
			m.wander()
		}
		m.moveByDirection()
	} else {
		if m.target.Health().Value <= 0 || !m.target.IsTargetable() {
			m.target = nil
			m.wander()
		} else if m.inAttackRange() {
			m.attackTarget()
		} else {
			m.follow()
		}
		m.moveByDirection()
	}

	if m.sqrDistFromSpawn > sqrMaxLeashDistance {
		m.reset()
	}
}

func (m *Mob) acquireTarget() {
	if m.cell == nil {
		return
	}
	m.cell.Players.Range(func(_ uint16, p *Player) bool {
		if p.IsTargetable() && !p.IsDead() && geom.SqrDistance(m.pos, p.Position()) < sqrAggroRange {
			m.target = p
			return false
		}
		return true
	})
}

func (m *Mob) wander() {
	dist := minWanderDistance + rand.Float32()*(maxWanderDistance-minWanderDistance)
	end := geom.RandomInCircle(m.pos, dist)
	m.setCourse(end)
}

func (m *Mob) follow() {
	// Aim for the edge of attack range on the near side of the target.
	targetPos := m.target.Position()
	end := targetPos.Add(targetPos.DirectionTo(m.pos).Scale(m.attackRange()))
	if geom.SqrDistance(m.endPos, end) > 1 {
		m.setCourse(end)
	}
}

func (m *Mob) setCourse(end geom.Vector3) {
	m.endPos = end
	m.direction = m.pos.DirectionTo(end).Scale(m.speed / m.TickRate())
	m.data.Broadcast.SendMobMovement(m)
}

// moveByDirection advances toward the end position. The leash
// distance is only resampled every few ticks.
func (m *Mob) moveByDirection() {
	if geom.SqrDistance(m.pos, m.endPos) < 1 {
		return
	}
	m.SetPosition(m.pos.Add(m.direction))
	if m.entityTick%10 == 0 {
		m.sqrDistFromSpawn = geom.SqrDistance(m.pos, m.spawn)
	}
}

func (m *Mob) attackRange() float32 {
	if m.mobSkill == nil {
		return 1
	}
	return m.mobSkill.MaxTargetRange
}

func (m *Mob) inAttackRange() bool {
	r := m.attackRange()
	return geom.SqrDistance(m.pos, m.target.Position()) < r*r
}

func (m *Mob) attackTarget() {
	m.endPos = m.pos
	if m.mobSkill == nil || m.attackReadyTick >= m.entityTick {
		return
	}
	m.attackReadyTick = m.entityTick + attackCooldownTicks
	m.AddSkill(m.mobSkill.Clone().Create(m, m.target, m.data))
}

func (m *Mob) reset() {
	m.resetting = true
	m.target = nil
	m.clearSkills()
	m.setCourse(m.spawn)
	m.sqrDistFromSpawn = 0
}

func (m *Mob) SetPosition(pos geom.Vector3) {
	m.pos = pos
	if m.cell != nil && !m.cell.Area.Contains(pos) {
		m.data.ReAddMob(m)
	}
}

// Respawn brings the mob back at its spawn point. Mobs grow a level
// per respawn until the cap, which keeps camped spawns dangerous.
func (m *Mob) Respawn() {
	if m.level < mobGrowthLevelCap {
		for a := Attribute(0); a < attrCount; a++ {
			m.attrs[a] += 10
		}
		m.level++
		m.CalculateResources()
	}
	m.skills = m.skills[:0]
	m.buffs = m.buffs[:0]
	m.casting = false
	m.target = nil
	m.resetting = false
	m.deathTimer = 0
	m.sqrDistFromSpawn = 0
	m.SetPosition(m.spawn)
	m.endPos = m.spawn
	m.health.SetFull()
	m.mana.SetFull()
	m.data.Broadcast.SendRespawn(m)
}

func (m *Mob) TakeDamage(school School, multiplier float32, caster Combatant) {
	if m.health.Value <= 0 {
		return
	}
	m.actor.TakeDamage(school, multiplier, caster)
	m.data.Broadcast.SendEntityUpdate(m)
	if m.health.Value > 0 {
		if !m.resetting {
			m.target = caster
		}
		if rand.Float32() < 0.1 {
			if enrage := m.data.Skills.Skill(SkillRage); enrage != nil {
				m.AddSkill(enrage.Create(m, m, m.data))
			}
		}
		return
	}
	m.target = nil
	caster.AddExperience(int64(m.level) * 100)
}

func (m *Mob) AddHealth(value int) {
	if m.health.IsFull() {
		return
	}
	m.actor.AddHealth(value)
	m.data.Broadcast.SendEntityUpdate(m)
}

// Calm halves the mob's attributes, used by script hooks to defuse an
// overgrown spawn.
func (m *Mob) Calm() {
	for a := Attribute(0); a < attrCount; a++ {
		m.attrs[a] /= 2
	}
	m.CalculateResources()
	m.data.Broadcast.SendEntityUpdate(m)
}
