package world

import (
	"github.com/FeXyK/Authory/internal/geom"
)

// Spawner seeds a map with a pack of mobs scattered around a center
// point. Respawning is handled by the mobs themselves.
type Spawner struct {
	Template *MobTemplate
	Center   geom.Vector3
	Radius   float32
	Count    int
}

// Populate creates the pack and places it on the grid. Spawn points
// that would fall off the map are clamped to the center.
func (s *Spawner) Populate(d *Data) []*Mob {
	mobs := make([]*Mob, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		pos := geom.RandomInCircle(s.Center, s.Radius)
		if d.CellAt(pos) == nil {
			pos = s.Center
		}
		m := NewMob(d, s.Template, pos)
		cell := d.CellAt(pos)
		if cell == nil {
			continue
		}
		cell.AddMob(m)
		mobs = append(mobs, m)
	}
	return mobs
}

// PlaceTeleport puts a teleport resource on the grid.
func (d *Data) PlaceTeleport(t *Teleport) bool {
	cell := d.CellAt(t.Position())
	if cell == nil {
		return false
	}
	cell.AddResource(t)
	return true
}
