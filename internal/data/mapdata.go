package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnerDef places a pack of one NPC type around a point.
type SpawnerDef struct {
	Npc    string  `yaml:"npc"`
	X      float32 `yaml:"x"`
	Z      float32 `yaml:"z"`
	Radius float32 `yaml:"radius"`
	Count  int     `yaml:"count"`
}

// TeleportDef places a map-handoff gate.
type TeleportDef struct {
	Name      string  `yaml:"name"`
	X         float32 `yaml:"x"`
	Z         float32 `yaml:"z"`
	TargetMap int32   `yaml:"target_map"`
	Radius    float32 `yaml:"radius"`
}

// MapDef describes one world map hosted by the cluster.
type MapDef struct {
	Index     int32         `yaml:"index"`
	Name      string        `yaml:"name"`
	Spawners  []SpawnerDef  `yaml:"spawners"`
	Teleports []TeleportDef `yaml:"teleports"`
}

type mapListFile struct {
	Maps []MapDef `yaml:"maps"`
}

// MapTable holds every map definition indexed by map index.
type MapTable struct {
	maps    map[int32]*MapDef
	ordered []*MapDef
}

// LoadMapTable loads the map list from a YAML file.
func LoadMapTable(path string) (*MapTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map_list: %w", err)
	}
	var f mapListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse map_list: %w", err)
	}
	if len(f.Maps) == 0 {
		return nil, fmt.Errorf("map_list %s: no maps defined", path)
	}
	t := &MapTable{maps: make(map[int32]*MapDef, len(f.Maps))}
	for i := range f.Maps {
		m := &f.Maps[i]
		if _, dup := t.maps[m.Index]; dup {
			return nil, fmt.Errorf("map_list %s: duplicate map index %d", path, m.Index)
		}
		t.maps[m.Index] = m
		t.ordered = append(t.ordered, m)
	}
	return t, nil
}

// Get returns a map definition by index, or nil if not found.
func (t *MapTable) Get(index int32) *MapDef {
	return t.maps[index]
}

// All returns the map definitions in file order.
func (t *MapTable) All() []*MapDef {
	return t.ordered
}

// Count returns the number of loaded maps.
func (t *MapTable) Count() int {
	return len(t.ordered)
}
