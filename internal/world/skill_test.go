package world

import (
	"testing"

	"github.com/FeXyK/Authory/internal/geom"
)

func testSkillTable() tableSkills {
	return tableSkills{
		SkillMeleeAutoAttack: {
			ID:             SkillMeleeAutoAttack,
			Kind:           KindDirect,
			School:         Physical,
			Cost:           CostMana,
			CostValue:      10,
			Multiplier:     2,
			MaxTargetRange: 5,
			Cooldown:       0.5,
		},
		SkillFireball: {
			ID:              SkillFireball,
			Kind:            KindProjectile,
			School:          Fire,
			Cost:            CostMana,
			CostValue:       100,
			Multiplier:      5,
			MaxTargetRange:  50,
			CastDuration:    0.5,
			Cooldown:        2,
			ProjectileSpeed: 20,
			Buff: &Buff{
				ID:         BuffIgnite,
				TickEffect: EffectHealth,
				TickValue:  -3,
				Duration:   10,
			},
		},
		SkillChainLightning: {
			ID:             SkillChainLightning,
			Kind:           KindChain,
			School:         Lightning,
			Cost:           CostMana,
			CostValue:      100,
			Multiplier:     5,
			MaxTargetRange: 50,
			CastDuration:   0.5,
			Cooldown:       2,
			Depth:          10,
			SqrBounceRange: 1200,
			Buff:           &Buff{ID: BuffRoot, ApplyEffect: EffectRoot, Duration: 3},
		},
		SkillBlink: {
			ID:             SkillBlink,
			Kind:           KindBlink,
			School:         Arcane,
			Cost:           CostMana,
			CostValue:      100,
			MaxTargetRange: 100,
			Cooldown:       3,
			InitialState:   SkillOnCasted,
		},
		SkillRage: {
			ID:           SkillRage,
			Kind:         KindSelfBuff,
			School:       Dark,
			Cost:         CostHealth,
			CostValue:    100,
			Cooldown:     60,
			InitialState: SkillOnCasted,
			Buff:         &Buff{ID: BuffRage, ApplyEffect: EffectRage, ApplyValue: 200, Duration: 10},
		},
	}
}

func tickUntilSettled(c *actor, limit int) {
	for i := 0; i < limit && len(c.skills) > 0; i++ {
		c.skillTick()
		c.entityTick++
	}
}

func TestDirectSkillDamagesTargetAndCoolsDown(t *testing.T) {
	t.Parallel()
	skills := testSkillTable()
	d, _ := newTestData(skills)
	caster := placeMob(d, geom.New(100, 0, 100))
	caster.SetAttr(Luck, -1)
	victim := placeMob(d, geom.New(103, 0, 100))
	before := victim.Health().Value

	s := skills.Skill(SkillMeleeAutoAttack).Create(caster, victim, d)
	if !caster.AddSkill(s) {
		t.Fatal("expected the cast to be accepted")
	}
	if !caster.IsCasting() {
		t.Fatal("expected the caster to be channeling")
	}
	tickUntilSettled(&caster.actor, 100)
	if len(caster.skills) != 0 {
		t.Fatalf("skill never settled, state %v", s.State)
	}
	want := 2 * caster.Attr(Strength)
	if got := before - victim.Health().Value; got != want {
		t.Fatalf("damage = %d, want %d", got, want)
	}
}

func TestRecastRejectedWhileOnCooldown(t *testing.T) {
	t.Parallel()
	skills := testSkillTable()
	d, _ := newTestData(skills)
	caster := placeMob(d, geom.New(100, 0, 100))
	victim := placeMob(d, geom.New(103, 0, 100))

	first := skills.Skill(SkillMeleeAutoAttack).Create(caster, victim, d)
	if !caster.AddSkill(first) {
		t.Fatal("expected the first cast to be accepted")
	}
	// Advance past the hit, into the cooldown window.
	caster.skillTick()
	caster.skillTick()
	caster.skillTick()
	if first.State != SkillOnCooldown {
		t.Fatalf("state = %v, want on-cooldown", first.State)
	}
	second := skills.Skill(SkillMeleeAutoAttack).Create(caster, victim, d)
	if caster.AddSkill(second) {
		t.Fatal("expected the recast to be rejected while on cooldown")
	}
}

func TestCastInterruptedWithoutMana(t *testing.T) {
	t.Parallel()
	skills := testSkillTable()
	d, b := newTestData(skills)
	caster := placeMob(d, geom.New(100, 0, 100))
	caster.Mana().Value = 0
	victim := placeMob(d, geom.New(103, 0, 100))
	before := victim.Health().Value

	s := skills.Skill(SkillMeleeAutoAttack).Create(caster, victim, d)
	caster.AddSkill(s)
	tickUntilSettled(&caster.actor, 100)
	if victim.Health().Value != before {
		t.Fatal("expected no damage from an unpaid cast")
	}
	// The caster's client resets the cooldown display off this notice.
	if b.skillInterrupts != 1 {
		t.Fatalf("skill-interrupt notices = %d, want 1", b.skillInterrupts)
	}
}

func TestProjectileTravelsBeforeHitting(t *testing.T) {
	t.Parallel()
	skills := testSkillTable()
	d, _ := newTestData(skills)
	caster := placeMob(d, geom.New(100, 0, 100))
	caster.SetAttr(Luck, -1)
	victim := placeMob(d, geom.New(120, 0, 100))
	before := victim.Health().Value

	s := skills.Skill(SkillFireball).Create(caster, victim, d)
	caster.AddSkill(s)
	// Finish the cast phase.
	for s.State == SkillOnCasting || s.State == SkillOnCasted {
		caster.skillTick()
	}
	if s.State != SkillOnMoving {
		t.Fatalf("state = %v, want moving", s.State)
	}
	if victim.Health().Value != before {
		t.Fatal("expected no damage while the projectile is in flight")
	}
	tickUntilSettled(&caster.actor, 1000)
	want := 5 * caster.Attr(Intelligence)
	if got := before - victim.Health().Value; got < want {
		t.Fatalf("damage = %d, want at least %d", got, want)
	}
	// The impact attaches the burn.
	if len(victim.buffs) != 1 || victim.buffs[0].ID != BuffIgnite {
		t.Fatalf("buffs = %v, want ignite attached", victim.buffs)
	}
}

func TestChainLightningBouncesToNearbyMob(t *testing.T) {
	t.Parallel()
	skills := testSkillTable()
	d, _ := newTestData(skills)
	caster := placePlayer(d, "storm", 5, geom.New(100, 0, 100))
	caster.SetAttr(Luck, -1)
	caster.Mana().Value = 100000
	first := placeMob(d, geom.New(110, 0, 100))
	second := placeMob(d, geom.New(120, 0, 100))
	h1, h2 := first.Health().Value, second.Health().Value

	s := skills.Skill(SkillChainLightning).Create(caster, first, d)
	caster.AddSkill(s)
	tickUntilSettled(&caster.actor, 2000)
	if first.Health().Value >= h1 {
		t.Fatal("expected the primary target to take damage")
	}
	if second.Health().Value >= h2 {
		t.Fatal("expected the bounce to hit the second mob")
	}
	if len(second.buffs) == 0 || second.buffs[0].ID != BuffRoot {
		t.Fatal("expected the bounce to root the second mob")
	}
}

func TestBlinkClampsToMaxRange(t *testing.T) {
	t.Parallel()
	skills := testSkillTable()
	d, _ := newTestData(skills)
	caster := placePlayer(d, "mage", 5, geom.New(500, 0, 500))

	s := skills.Skill(SkillBlink).CreateAt(caster, geom.New(900, 0, 500), d)
	caster.AddSkill(s)
	caster.skillTick()
	if got := geom.Distance(geom.New(500, 0, 500), caster.Position()); got > 100.5 {
		t.Fatalf("blink travelled %v, want clamped to 100", got)
	}
	if caster.Position().X <= 500 {
		t.Fatal("expected the caster to move toward the destination")
	}
}

func TestRageBuffsTheCaster(t *testing.T) {
	t.Parallel()
	skills := testSkillTable()
	d, _ := newTestData(skills)
	caster := placeMob(d, geom.New(100, 0, 100))
	str := caster.Attr(Strength)

	s := skills.Skill(SkillRage).Create(caster, caster, d)
	caster.AddSkill(s)
	caster.skillTick()
	caster.skillTick()
	if caster.Attr(Strength) != str+200 {
		t.Fatalf("strength = %d, want %d", caster.Attr(Strength), str+200)
	}
}

func TestInterruptCastingAbortsChanneledSkills(t *testing.T) {
	t.Parallel()
	skills := testSkillTable()
	d, _ := newTestData(skills)
	caster := placeMob(d, geom.New(100, 0, 100))
	victim := placeMob(d, geom.New(110, 0, 100))
	before := victim.Health().Value

	s := skills.Skill(SkillFireball).Create(caster, victim, d)
	caster.AddSkill(s)
	caster.InterruptCasting()
	tickUntilSettled(&caster.actor, 100)
	if victim.Health().Value != before {
		t.Fatal("expected no damage after the interrupt")
	}
	if len(caster.skills) != 0 {
		t.Fatal("expected the interrupted skill to be discarded")
	}
}
