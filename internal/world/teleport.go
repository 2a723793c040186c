package world

import (
	"github.com/FeXyK/Authory/internal/geom"
)

// Teleport is a static map resource that hands players over to
// another map when they interact with it up close.
type Teleport struct {
	id   uint16
	name string
	pos  geom.Vector3
	cell *GridCell
	data *Data

	TargetMapIndex int32
	Radius         float32
}

func NewTeleport(d *Data, name string, pos geom.Vector3, targetMapIndex int32, radius float32) *Teleport {
	return &Teleport{
		name:           name,
		pos:            pos,
		data:           d,
		TargetMapIndex: targetMapIndex,
		Radius:         radius,
	}
}

func (t *Teleport) ID() uint16             { return t.id }
func (t *Teleport) SetID(id uint16)        { t.id = id }
func (t *Teleport) Name() string           { return t.name }
func (t *Teleport) Model() ModelType       { return TeleportResource }
func (t *Teleport) Position() geom.Vector3 { return t.pos }
func (t *Teleport) Cell() *GridCell        { return t.cell }
func (t *Teleport) SetCell(c *GridCell)    { t.cell = c }
func (t *Teleport) Tick()                  {}

// Interact starts the map handoff when the player is inside the
// activation radius. The player leaves this map immediately; the
// master routes the character to a channel of the target map.
func (t *Teleport) Interact(p *Player) {
	if geom.SqrDistance(t.pos, p.Position()) > t.Radius*t.Radius {
		return
	}
	t.data.Broadcast.SendMapChangeRequest(p, t.TargetMapIndex)
	t.data.ForgetPlayer(p)
}
