package world

import (
	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/geom"
	"github.com/FeXyK/Authory/internal/wire"
)

// nopBroadcaster counts the events tests care about and discards the
// rest.
type nopBroadcaster struct {
	NopBroadcaster

	deaths          int
	buffApplies     int
	buffRefresh     int
	buffRemoves     int
	skillInterrupts int
	systemInfos     []wire.SystemMsg
	mapChanges      []int32
}

func (b *nopBroadcaster) SendDeath(Combatant)              { b.deaths++ }
func (b *nopBroadcaster) SendBuffApply(Combatant, *Buff)   { b.buffApplies++ }
func (b *nopBroadcaster) SendBuffRefresh(Combatant, *Buff) { b.buffRefresh++ }
func (b *nopBroadcaster) SendBuffRemove(Combatant, *Buff)  { b.buffRemoves++ }
func (b *nopBroadcaster) SendSkillInterrupt(Combatant, SkillID) {
	b.skillInterrupts++
}
func (b *nopBroadcaster) SendSystemInfo(_ *Player, msg wire.SystemMsg) {
	b.systemInfos = append(b.systemInfos, msg)
}
func (b *nopBroadcaster) SendMapChangeRequest(_ *Player, mapIndex int32) {
	b.mapChanges = append(b.mapChanges, mapIndex)
}

type fixedRates struct{ rate float32 }

func (r fixedRates) PlayerTickRate() float32 { return r.rate }
func (r fixedRates) MobTickRate() float32    { return r.rate }

type tableSkills map[SkillID]*Skill

func (t tableSkills) Skill(id SkillID) *Skill {
	tpl, ok := t[id]
	if !ok {
		return nil
	}
	return tpl.Clone()
}

const testTickRate = 20

func newTestData(skills tableSkills) (*Data, *nopBroadcaster) {
	b := &nopBroadcaster{}
	d := NewData(0, "test", 2000, 10, zap.NewNop())
	d.Broadcast = b
	d.Rates = fixedRates{rate: testTickRate}
	d.Skills = skills
	return d, b
}

func testMobTemplate() *MobTemplate {
	return &MobTemplate{
		Name:          "training dummy",
		Model:         MeleeNPC,
		Level:         1,
		Attrs:         [attrCount]int{25, 25, 25, 25, 100, 25},
		MovementSpeed: 10,
		SkillID:       SkillMeleeAutoAttack,
	}
}

func placeMob(d *Data, pos geom.Vector3) *Mob {
	m := NewMob(d, testMobTemplate(), pos)
	d.CellAt(pos).AddMob(m)
	return m
}

func placePlayer(d *Data, name string, level byte, pos geom.Vector3) *Player {
	p := NewPlayer(d, name, StandardPlayer, level)
	p.SetID(d.NextPlayerID())
	d.AddPlayer(p, pos)
	return p
}
