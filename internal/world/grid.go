package world

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/FeXyK/Authory/internal/geom"
)

// Rect is a cell's axis-aligned area in world units.
type Rect struct {
	X, Z float32
	W, H float32
}

func (r Rect) Contains(pos geom.Vector3) bool {
	return pos.X >= r.X && pos.X < r.X+r.W && pos.Z >= r.Z && pos.Z < r.Z+r.H
}

// GridCell is one tile of the interest-management grid. Entities only
// ever see and message the 3x3 neighbourhood of their own cell.
// Neighbours always lists the cell itself first.
type GridCell struct {
	Row, Col   int
	Area       Rect
	Neighbours []*GridCell

	Players   *xsync.MapOf[uint16, *Player]
	Mobs      *xsync.MapOf[uint16, Combatant]
	Resources *xsync.MapOf[uint16, Entity]

	data   *Data
	nextID *atomic.Uint32
}

func newGridCell(d *Data, row, col int, area Rect, nextID *atomic.Uint32) *GridCell {
	return &GridCell{
		Row:       row,
		Col:       col,
		Area:      area,
		Players:   xsync.NewMapOf[uint16, *Player](),
		Mobs:      xsync.NewMapOf[uint16, Combatant](),
		Resources: xsync.NewMapOf[uint16, Entity](),
		data:      d,
		nextID:    nextID,
	}
}

// AddPlayer places a player whose id was already assigned by the
// admission path.
func (c *GridCell) AddPlayer(p *Player) {
	c.Players.Store(p.ID(), p)
	p.cell = c
}

// AddMob assigns the mob its map-wide id and places it.
func (c *GridCell) AddMob(m Combatant) {
	m.SetID(uint16(c.nextID.Add(1)))
	c.Mobs.Store(m.ID(), m)
	m.SetCell(c)
}

// AddResource assigns the entity its map-wide id and places it.
func (c *GridCell) AddResource(e Entity) {
	e.SetID(uint16(c.nextID.Add(1)))
	c.Resources.Store(e.ID(), e)
	e.SetCell(c)
}

// ReAddPlayer moves a player into this cell from its current one. The
// destination holds the player before the source lets go, so a
// concurrent reader never loses sight of it.
func (c *GridCell) ReAddPlayer(p *Player) {
	old := p.Cell()
	if old == c {
		return
	}
	c.Players.Store(p.ID(), p)
	p.SetCell(c)
	if old != nil {
		old.Players.Delete(p.ID())
	}
}

// ReAddMob moves a mob into this cell from its current one.
func (c *GridCell) ReAddMob(m Combatant) {
	old := m.Cell()
	if old == c {
		return
	}
	c.Mobs.Store(m.ID(), m)
	m.SetCell(c)
	if old != nil {
		old.Mobs.Delete(m.ID())
	}
}

func (c *GridCell) RemovePlayer(p *Player)  { c.Players.Delete(p.ID()) }
func (c *GridCell) RemoveMob(m Combatant)   { c.Mobs.Delete(m.ID()) }
func (c *GridCell) PlayerCount() int        { return c.Players.Size() }
func (c *GridCell) MobCount() int           { return c.Mobs.Size() }

// Entity finds any entity in the cell by id, checking players, mobs,
// then resources.
func (c *GridCell) Entity(id uint16) Entity {
	if p, ok := c.Players.Load(id); ok {
		return p
	}
	if m, ok := c.Mobs.Load(id); ok {
		return m
	}
	if e, ok := c.Resources.Load(id); ok {
		return e
	}
	return nil
}

// Combatant finds a player or mob in the cell's neighbourhood by id.
func (c *GridCell) Combatant(id uint16) Combatant {
	for _, n := range c.Neighbours {
		if p, ok := n.Players.Load(id); ok {
			return p
		}
		if m, ok := n.Mobs.Load(id); ok {
			return m
		}
	}
	return nil
}
