package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/FeXyK/Authory/internal/world"
)

// NpcDef is the YAML shape of a mob template.
type NpcDef struct {
	Name          string  `yaml:"name"`
	Model         byte    `yaml:"model"`
	Level         byte    `yaml:"level"`
	Endurance     int     `yaml:"endurance"`
	Strength      int     `yaml:"strength"`
	Agility       int     `yaml:"agility"`
	Intelligence  int     `yaml:"intelligence"`
	Knowledge     int     `yaml:"knowledge"`
	Luck          int     `yaml:"luck"`
	MovementSpeed float32 `yaml:"movement_speed"`
	Skill         byte    `yaml:"skill"`
	MaxHealth     int     `yaml:"max_health"`
	HealthRegen   int     `yaml:"health_regen"`
}

type npcListFile struct {
	Npcs []NpcDef `yaml:"npcs"`
}

// NpcTable holds mob templates indexed by name.
type NpcTable struct {
	templates map[string]*world.MobTemplate
}

// LoadNpcTable loads mob templates from a YAML file.
func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc_list: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npc_list: %w", err)
	}
	t := &NpcTable{templates: make(map[string]*world.MobTemplate, len(f.Npcs))}
	for i := range f.Npcs {
		def := &f.Npcs[i]
		t.templates[def.Name] = &world.MobTemplate{
			Name:  def.Name,
			Model: world.ModelType(def.Model),
			Level: def.Level,
			Attrs: [6]int{
				def.Endurance,
				def.Strength,
				def.Agility,
				def.Intelligence,
				def.Knowledge,
				def.Luck,
			},
			MovementSpeed: def.MovementSpeed,
			SkillID:       world.SkillID(def.Skill),
			MaxHealth:     def.MaxHealth,
			HealthRegen:   def.HealthRegen,
		}
	}
	return t, nil
}

// Get returns a mob template by name, or nil if not found.
func (t *NpcTable) Get(name string) *world.MobTemplate {
	return t.templates[name]
}

// Count returns the number of loaded templates.
func (t *NpcTable) Count() int {
	return len(t.templates)
}
