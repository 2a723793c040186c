// Package world holds the authoritative game state of one map: the
// spatial grid, players, server-driven mobs, and the skill and buff
// machinery that runs on the map's fixed-rate ticks. All outbound
// notifications go through the Broadcaster interface so the simulation
// stays independent of the network layer.
package world

// ModelType identifies a client-side model. Values are part of the
// wire protocol.
type ModelType byte

const (
	StandardPlayer ModelType = 0
	BlackPlayer    ModelType = 1
	WhitePlayer    ModelType = 2
	RedPlayer      ModelType = 3
	GreenPlayer    ModelType = 4
	BluePlayer     ModelType = 5

	MeleeNPC  ModelType = 50
	WizardNPC ModelType = 51
	RangerNPC ModelType = 52

	TeleportResource ModelType = 254
)

// Attribute indexes the six base stats of an entity.
type Attribute int

const (
	Endurance Attribute = iota
	Strength
	Agility
	Intelligence
	Knowledge
	Luck

	attrCount
)

// School is the damage school of a skill. Elemental schools scale on
// Intelligence; Physical scales on Strength and is reduced by armor.
type School byte

const (
	Physical School = iota
	Arcane
	Fire
	Water
	Lightning
	Earth
	Dark
	Light
)

// Elemental reports whether the school scales on Intelligence.
func (s School) Elemental() bool {
	return s != Physical
}

// CostType is the resource a skill consumes on cast.
type CostType byte

const (
	CostMana CostType = iota
	CostHealth
)

// SkillID identifies a skill. Values are part of the wire protocol.
type SkillID byte

const (
	SkillMeleeAutoAttack SkillID = 0
	SkillRangedAutoAttack SkillID = 1
	SkillFireball        SkillID = 2
	SkillFireShot        SkillID = 3
	SkillExplosion       SkillID = 4
	SkillChainLightning  SkillID = 5
	SkillMeteorShower    SkillID = 6

	SkillBlink SkillID = 50

	SkillSwiftness SkillID = 51

	SkillHealthOverflow SkillID = 101
	SkillManaOverflow   SkillID = 102
	SkillHealthOverload SkillID = 103
	SkillManaOverload   SkillID = 104

	SkillStrength SkillID = 105
	SkillRage     SkillID = 110

	SkillCleave SkillID = 254
)

// BuffID identifies a buff. Values are part of the wire protocol.
type BuffID byte

const (
	BuffHealthOverflow BuffID = 0
	BuffHealthOverload BuffID = 1
	BuffManaOverflow   BuffID = 2
	BuffManaOverload   BuffID = 3
	BuffSwiftness      BuffID = 4

	BuffStrength BuffID = 5

	BuffRage BuffID = 10

	BuffRoot BuffID = 51
	BuffFear BuffID = 52
	BuffStun BuffID = 53

	BuffIgnite BuffID = 100
)

// SkillState is the lifecycle state of an in-flight skill instance.
type SkillState byte

const (
	SkillNone SkillState = iota
	SkillOnCasting
	SkillOnCasted
	SkillOnMoving
	SkillOnHit
	SkillInterrupted
	SkillHandled
	SkillOnCooldown
)

// StatusEffect is what a buff does, either once on apply or on every
// entity tick while active.
type StatusEffect byte

const (
	EffectNone StatusEffect = iota
	EffectTrueDamage
	EffectMagicDamage
	EffectPhysicalDamage
	EffectPhysicalResist
	EffectMagicResist
	EffectHealth
	EffectMoveSpeed
	EffectRoot
	EffectSnare
	EffectKnockback
	EffectCleanse
	EffectDebuff
	EffectInterrupt
	EffectTeleport
	EffectMana
	EffectIncreaseEndurance
	EffectIncreaseKnowledge
	EffectStun
	EffectAllAttributes
	EffectRage
)

// Resource is a bounded pool such as health or mana.
type Resource struct {
	Max   int
	Value int
	Regen int
}

func (r *Resource) SetFull() {
	r.Value = r.Max
}

func (r *Resource) IsFull() bool {
	return r.Value == r.Max
}
