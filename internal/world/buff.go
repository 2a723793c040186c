package world

// Buff is a timed status effect. ApplyEffect fires once when the buff
// lands and is reversed when it expires; TickEffect fires on every
// entity tick while the buff is active. Durations are given in
// seconds and converted to ticks against the owner's tick rate when
// applied.
type Buff struct {
	ID          BuffID
	ApplyEffect StatusEffect
	ApplyValue  int
	TickEffect  StatusEffect
	TickValue   int
	Duration    float32

	ExpirationTick int64

	durationTicks int64
	applied       bool
}

func (b *Buff) scaleDuration(tickRate float32) {
	b.durationTicks = int64(b.Duration * tickRate)
}

func (b *Buff) setExpiration(entityTick int64) {
	b.ExpirationTick = entityTick + b.durationTicks
}

// Remaining reports the ticks left before expiry, for client timers.
func (b *Buff) Remaining(entityTick int64) int64 {
	return b.ExpirationTick - entityTick
}

func (b *Buff) onApply(e Combatant) {
	switch b.ApplyEffect {
	case EffectMoveSpeed:
		e.SetMovementSpeed(e.MovementSpeed() + float32(b.ApplyValue))
	case EffectStun, EffectRoot, EffectSnare:
		e.SetMovementSpeed(0)
	case EffectIncreaseEndurance:
		e.SetAttr(Endurance, e.Attr(Endurance)+b.ApplyValue)
	case EffectIncreaseKnowledge:
		e.SetAttr(Knowledge, e.Attr(Knowledge)+b.ApplyValue)
	case EffectRage, EffectAllAttributes:
		for a := Attribute(0); a < attrCount; a++ {
			e.SetAttr(a, e.Attr(a)+b.ApplyValue)
		}
	}
	b.applied = true
}

func (b *Buff) onEnd(e Combatant) {
	if !b.applied {
		return
	}
	switch b.ApplyEffect {
	case EffectMoveSpeed:
		e.SetMovementSpeed(e.MovementSpeed() - float32(b.ApplyValue))
	case EffectStun, EffectRoot, EffectSnare:
		e.SetMovementSpeed(e.BaseMovementSpeed())
	case EffectIncreaseEndurance:
		e.SetAttr(Endurance, e.Attr(Endurance)-b.ApplyValue)
	case EffectIncreaseKnowledge:
		e.SetAttr(Knowledge, e.Attr(Knowledge)-b.ApplyValue)
	case EffectRage, EffectAllAttributes:
		for a := Attribute(0); a < attrCount; a++ {
			e.SetAttr(a, e.Attr(a)-b.ApplyValue)
		}
	}
	b.applied = false
}

func (b *Buff) onTick(e Combatant) {
	switch b.TickEffect {
	case EffectHealth:
		if b.TickValue > 0 {
			e.AddHealth(b.TickValue)
		} else {
			e.TakeTrueDamage(-b.TickValue)
		}
	case EffectMana:
		e.AddMana(b.TickValue)
	}
}
