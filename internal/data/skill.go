package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/FeXyK/Authory/internal/world"
)

// castLagCompensation is shaved off every cooldown so a client whose
// cast packet arrived late is not punished with a dead input window.
const castLagCompensation = 0.3

// SkillDef is the YAML shape of a skill.
type SkillDef struct {
	ID             byte     `yaml:"id"`
	Name           string   `yaml:"name"`
	Kind           string   `yaml:"kind"`
	School         string   `yaml:"school"`
	Cost           string   `yaml:"cost"`
	CostValue      int      `yaml:"cost_value"`
	Multiplier     float32  `yaml:"multiplier"`
	MaxTargetRange float32  `yaml:"max_target_range"`
	CastDuration   float32  `yaml:"cast_duration"`
	Cooldown       float32  `yaml:"cooldown"`
	Instant        bool     `yaml:"instant"`
	ProjSpeed      float32  `yaml:"projectile_speed"`
	SqrRange       float32  `yaml:"sqr_range"`
	Depth          int      `yaml:"depth"`
	SqrBounceRange float32  `yaml:"sqr_bounce_range"`
	Buff           *BuffDef `yaml:"buff"`
	OnHit          string   `yaml:"on_hit"`
}

// BuffDef is the YAML shape of a buff attached to a skill.
type BuffDef struct {
	ID         byte    `yaml:"id"`
	Effect     string  `yaml:"effect"`
	Value      int     `yaml:"value"`
	TickEffect string  `yaml:"tick_effect"`
	TickValue  int     `yaml:"tick_value"`
	Duration   float32 `yaml:"duration"`
}

type skillListFile struct {
	Skills []SkillDef `yaml:"skills"`
}

var skillKinds = map[string]world.SkillKind{
	"direct":     world.KindDirect,
	"projectile": world.KindProjectile,
	"blink":      world.KindBlink,
	"cell_nova":  world.KindCellNova,
	"area_burst": world.KindAreaBurst,
	"chain":      world.KindChain,
	"buff":       world.KindBuff,
	"self_buff":  world.KindSelfBuff,
}

var schools = map[string]world.School{
	"physical":  world.Physical,
	"arcane":    world.Arcane,
	"fire":      world.Fire,
	"water":     world.Water,
	"lightning": world.Lightning,
	"earth":     world.Earth,
	"dark":      world.Dark,
	"light":     world.Light,
}

var costTypes = map[string]world.CostType{
	"":       world.CostMana,
	"mana":   world.CostMana,
	"health": world.CostHealth,
}

var statusEffects = map[string]world.StatusEffect{
	"":               world.EffectNone,
	"health":         world.EffectHealth,
	"mana":           world.EffectMana,
	"move_speed":     world.EffectMoveSpeed,
	"root":           world.EffectRoot,
	"snare":          world.EffectSnare,
	"stun":           world.EffectStun,
	"endurance":      world.EffectIncreaseEndurance,
	"knowledge":      world.EffectIncreaseKnowledge,
	"rage":           world.EffectRage,
	"all_attributes": world.EffectAllAttributes,
}

// SkillTable holds skill prototypes indexed by id and hands out
// unbound clones. It satisfies the simulation's skill source.
type SkillTable struct {
	prototypes map[world.SkillID]*world.Skill
}

// LoadSkillTable loads skill definitions from a YAML file.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill_list: %w", err)
	}
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skill_list: %w", err)
	}
	t := &SkillTable{prototypes: make(map[world.SkillID]*world.Skill, len(f.Skills))}
	for i := range f.Skills {
		s, err := buildSkill(&f.Skills[i])
		if err != nil {
			return nil, fmt.Errorf("skill %q: %w", f.Skills[i].Name, err)
		}
		t.prototypes[s.ID] = s
	}
	return t, nil
}

func buildSkill(def *SkillDef) (*world.Skill, error) {
	kind, ok := skillKinds[def.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", def.Kind)
	}
	school, ok := schools[def.School]
	if !ok {
		return nil, fmt.Errorf("unknown school %q", def.School)
	}
	cost, ok := costTypes[def.Cost]
	if !ok {
		return nil, fmt.Errorf("unknown cost type %q", def.Cost)
	}
	cooldown := def.Cooldown - castLagCompensation
	if cooldown < 0 {
		cooldown = 0
	}
	s := &world.Skill{
		ID:              world.SkillID(def.ID),
		Kind:            kind,
		School:          school,
		Cost:            cost,
		CostValue:       def.CostValue,
		Multiplier:      def.Multiplier,
		MaxTargetRange:  def.MaxTargetRange,
		CastDuration:    def.CastDuration,
		Cooldown:        cooldown,
		ProjectileSpeed: def.ProjSpeed,
		SqrRange:        def.SqrRange,
		Depth:           def.Depth,
		SqrBounceRange:  def.SqrBounceRange,
		HookOnHit:       def.OnHit,
	}
	if def.Instant {
		s.InitialState = world.SkillOnCasted
	}
	if def.Buff != nil {
		b, err := buildBuff(def.Buff)
		if err != nil {
			return nil, err
		}
		s.Buff = b
	}
	return s, nil
}

func buildBuff(def *BuffDef) (*world.Buff, error) {
	effect, ok := statusEffects[def.Effect]
	if !ok {
		return nil, fmt.Errorf("unknown buff effect %q", def.Effect)
	}
	tickEffect, ok := statusEffects[def.TickEffect]
	if !ok {
		return nil, fmt.Errorf("unknown buff tick effect %q", def.TickEffect)
	}
	return &world.Buff{
		ID:          world.BuffID(def.ID),
		ApplyEffect: effect,
		ApplyValue:  def.Value,
		TickEffect:  tickEffect,
		TickValue:   def.TickValue,
		Duration:    def.Duration,
	}, nil
}

// Skill returns a fresh clone of the prototype, or nil if unknown.
func (t *SkillTable) Skill(id world.SkillID) *world.Skill {
	p, ok := t.prototypes[id]
	if !ok {
		return nil
	}
	return p.Clone()
}

// Count returns the number of loaded skills.
func (t *SkillTable) Count() int {
	return len(t.prototypes)
}
