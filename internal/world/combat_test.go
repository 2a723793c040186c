package world

import (
	"testing"

	"github.com/FeXyK/Authory/internal/geom"
	"github.com/FeXyK/Authory/internal/wire"
)

func TestPhysicalDamageFloor(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	caster := placeMob(d, geom.New(100, 0, 100))
	caster.SetAttr(Strength, 50)
	caster.SetAttr(Luck, -1)
	victim := placePlayer(d, "tank", 3, geom.New(105, 0, 100))

	before := victim.Health().Value
	victim.TakeDamage(Physical, 1, caster)
	// 50 attack into 300 armor still lands the minimum hit.
	if got := before - victim.Health().Value; got != 10 {
		t.Fatalf("damage = %d, want 10", got)
	}
}

func TestElementalDamageScalesOnIntelligence(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	caster := placeMob(d, geom.New(100, 0, 100))
	caster.SetAttr(Intelligence, 30)
	caster.SetAttr(Luck, -1)
	victim := placeMob(d, geom.New(110, 0, 100))

	before := victim.Health().Value
	victim.TakeDamage(Fire, 2, caster)
	if got := before - victim.Health().Value; got != 60 {
		t.Fatalf("damage = %d, want 60", got)
	}
}

func TestLuckyHitAlwaysCrits(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	caster := placeMob(d, geom.New(100, 0, 100))
	caster.SetAttr(Intelligence, 30)
	caster.SetAttr(Luck, 100)
	victim := placeMob(d, geom.New(110, 0, 100))

	before := victim.Health().Value
	victim.TakeDamage(Fire, 2, caster)
	if got := before - victim.Health().Value; got != 120 {
		t.Fatalf("damage = %d, want 120 (doubled)", got)
	}
}

func TestDamageClampsToRemainingHealth(t *testing.T) {
	t.Parallel()
	d, b := newTestData(nil)
	caster := placeMob(d, geom.New(100, 0, 100))
	caster.SetAttr(Intelligence, 100000)
	caster.SetAttr(Luck, -1)
	victim := placeMob(d, geom.New(110, 0, 100))

	victim.TakeDamage(Fire, 1, caster)
	if victim.Health().Value != 0 {
		t.Fatalf("health = %d, want 0", victim.Health().Value)
	}
	if b.deaths == 0 {
		t.Fatal("expected a death broadcast")
	}
}

func TestKillingMobRewardsExperience(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	p := placePlayer(d, "slayer", 5, geom.New(100, 0, 100))
	p.SetAttr(Luck, -1)
	m := placeMob(d, geom.New(105, 0, 100))

	exp := p.Experience
	m.TakeDamage(Fire, 100000, p)
	if m.Health().Value != 0 {
		t.Fatalf("mob health = %d, want 0", m.Health().Value)
	}
	if p.Experience-exp != int64(m.Level())*100 {
		t.Fatalf("experience gain = %d, want %d", p.Experience-exp, int64(m.Level())*100)
	}
}

func TestUseResourceFailureNotifiesPlayer(t *testing.T) {
	t.Parallel()
	d, b := newTestData(nil)
	p := placePlayer(d, "oom", 1, geom.New(100, 0, 100))

	if p.UseResource(CostMana, p.Mana().Value+1) {
		t.Fatal("expected over-cost mana use to fail")
	}
	if len(b.systemInfos) == 0 || b.systemInfos[0] != wire.SysNotEnoughMana {
		t.Fatalf("systemInfos = %v, want not-enough-mana notice", b.systemInfos)
	}
}

func TestHealthCostMustLeaveCasterAlive(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	m := placeMob(d, geom.New(100, 0, 100))

	if m.UseResource(CostHealth, m.Health().Value) {
		t.Fatal("expected full-health cost to fail")
	}
	if !m.UseResource(CostHealth, m.Health().Value-1) {
		t.Fatal("expected survivable health cost to succeed")
	}
}

func TestPlayerLevelUpCarriesOverflow(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	p := placePlayer(d, "rookie", 1, geom.New(100, 0, 100))

	p.AddExperience(p.MaxExperience + 30)
	if p.Level() != 2 {
		t.Fatalf("level = %d, want 2", p.Level())
	}
	if p.Experience != 30 {
		t.Fatalf("experience = %d, want 30 carried over", p.Experience)
	}
	if p.MaxExperience != 400 {
		t.Fatalf("max experience = %d, want 400", p.MaxExperience)
	}
	// Attributes follow the level.
	if p.Attr(Strength) != 40 {
		t.Fatalf("strength = %d, want 40", p.Attr(Strength))
	}
}

func TestMobRespawnGrowsUntilCap(t *testing.T) {
	t.Parallel()
	d, _ := newTestData(nil)
	m := placeMob(d, geom.New(100, 0, 100))
	end := m.Attr(Endurance)

	m.Health().Value = 0
	m.Respawn()
	if m.Level() != 2 {
		t.Fatalf("level = %d, want 2", m.Level())
	}
	if m.Attr(Endurance) != end+10 {
		t.Fatalf("endurance = %d, want %d", m.Attr(Endurance), end+10)
	}
	if !m.Health().IsFull() {
		t.Fatal("expected full health after respawn")
	}

	for i := 0; i < 20; i++ {
		m.Respawn()
	}
	if m.Level() != mobGrowthLevelCap {
		t.Fatalf("level = %d, want capped at %d", m.Level(), mobGrowthLevelCap)
	}
}
