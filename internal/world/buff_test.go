package world

import (
	"testing"

	"github.com/FeXyK/Authory/internal/geom"
)

func enduranceBuff(duration float32) Buff {
	return Buff{
		ID:          BuffHealthOverflow,
		ApplyEffect: EffectIncreaseEndurance,
		ApplyValue:  20,
		Duration:    duration,
	}
}

func TestBuffRaisesAttributeAndPools(t *testing.T) {
	t.Parallel()
	d, b := newTestData(nil)
	m := placeMob(d, geom.New(100, 0, 100))
	end := m.Attr(Endurance)
	maxHP := m.Health().Max

	m.AddBuff(enduranceBuff(60))
	if m.Attr(Endurance) != end+20 {
		t.Fatalf("endurance = %d, want %d", m.Attr(Endurance), end+20)
	}
	if m.Health().Max != maxHP+20*20 {
		t.Fatalf("max health = %d, want %d", m.Health().Max, maxHP+20*20)
	}
	if b.buffApplies != 1 {
		t.Fatalf("buff applies = %d, want 1", b.buffApplies)
	}
}

func TestBuffRefreshDoesNotStack(t *testing.T) {
	t.Parallel()
	d, b := newTestData(nil)
	m := placeMob(d, geom.New(100, 0, 100))
	end := m.Attr(Endurance)

	m.AddBuff(enduranceBuff(60))
	first := m.buffs[0].ExpirationTick
	m.entityTick += 100
	m.AddBuff(enduranceBuff(60))
	if m.Attr(Endurance) != end+20 {
		t.Fatalf("endurance = %d, want %d (no stacking)", m.Attr(Endurance), end+20)
	}
	if len(m.buffs) != 1 {
		t.Fatalf("buff count = %d, want 1", len(m.buffs))
	}
	if m.buffs[0].ExpirationTick <= first {
		t.Fatal("expected the refresh to extend the expiration")
	}
	if b.buffRefresh != 1 {
		t.Fatalf("buff refreshes = %d, want 1", b.buffRefresh)
	}
}

func TestBuffExpiresAndReverts(t *testing.T) {
	t.Parallel()
	d, b := newTestData(nil)
	m := placeMob(d, geom.New(100, 0, 100))
	end := m.Attr(Endurance)

	m.AddBuff(enduranceBuff(1))
	m.entityTick = m.buffs[0].ExpirationTick + 1
	m.buffTick()
	if len(m.buffs) != 0 {
		t.Fatalf("buff count = %d, want 0 after expiry", len(m.buffs))
	}
	if m.Attr(Endurance) != end {
		t.Fatalf("endurance = %d, want %d restored", m.Attr(Endurance), end)
	}
	if b.buffRemoves != 1 {
		t.Fatalf("buff removes = %d, want 1", b.buffRemoves)
	}
}

func TestRootZeroesSpeedAndRestoresBaseline(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	m := placeMob(d, geom.New(100, 0, 100))

	root := Buff{ID: BuffRoot, ApplyEffect: EffectRoot, Duration: 1}
	m.AddBuff(root)
	if m.MovementSpeed() != 0 {
		t.Fatalf("speed = %v, want 0 while rooted", m.MovementSpeed())
	}
	m.entityTick = m.buffs[0].ExpirationTick + 1
	m.buffTick()
	if m.MovementSpeed() != m.BaseMovementSpeed() {
		t.Fatalf("speed = %v, want baseline %v", m.MovementSpeed(), m.BaseMovementSpeed())
	}
}

func TestDamageOverTimeTicksHealthDown(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	m := placeMob(d, geom.New(100, 0, 100))
	m.Health().Regen = 0

	ignite := Buff{ID: BuffIgnite, TickEffect: EffectHealth, TickValue: -3, Duration: 10}
	m.AddBuff(ignite)
	before := m.Health().Value
	for i := 0; i < 5; i++ {
		m.buffTick()
		m.entityTick++
	}
	if got := before - m.Health().Value; got != 15 {
		t.Fatalf("damage over 5 ticks = %d, want 15", got)
	}
}

func TestRageRaisesEveryAttribute(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	m := placeMob(d, geom.New(100, 0, 100))
	var before [attrCount]int
	for a := Attribute(0); a < attrCount; a++ {
		before[a] = m.Attr(a)
	}

	rage := Buff{ID: BuffRage, ApplyEffect: EffectRage, ApplyValue: 200, Duration: 10}
	m.AddBuff(rage)
	for a := Attribute(0); a < attrCount; a++ {
		if m.Attr(a) != before[a]+200 {
			t.Fatalf("attribute %d = %d, want %d", a, m.Attr(a), before[a]+200)
		}
	}
}
