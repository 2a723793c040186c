package world

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/geom"
)

// Data is the authoritative state of one map: the interest grid and
// every index needed to find an entity fast. All maps are safe for
// concurrent use; cross-entity mutation happens on the simulation
// loops.
type Data struct {
	MapIndex int32
	MapName  string

	Resolution int
	CellSize   float32
	Extent     float32

	Grid [][]*GridCell

	PlayersByID    *xsync.MapOf[uint16, *Player]
	PlayersByUID   *xsync.MapOf[uint64, *Player]
	RecentlyOnline *xsync.MapOf[int32, *Player]

	Broadcast Broadcaster
	Rates     RateSource
	Skills    SkillSource
	Scripts   ScriptRunner

	log          *zap.Logger
	awaiting     *xsync.MapOf[string, awaitingEntry]
	nextEntityID atomic.Uint32
	nextPlayerID atomic.Uint32
}

type awaitingEntry struct {
	player  *Player
	expires time.Time
}

// NewData builds the grid for a square map of the given extent split
// into resolution x resolution cells.
func NewData(mapIndex int32, mapName string, extent float32, resolution int, log *zap.Logger) *Data {
	d := &Data{
		MapIndex:       mapIndex,
		MapName:        mapName,
		Resolution:     resolution,
		CellSize:       extent / float32(resolution),
		Extent:         extent,
		PlayersByID:    xsync.NewMapOf[uint16, *Player](),
		PlayersByUID:   xsync.NewMapOf[uint64, *Player](),
		RecentlyOnline: xsync.NewMapOf[int32, *Player](),
		awaiting:       xsync.NewMapOf[string, awaitingEntry](),
		log:            log,
	}
	d.Grid = make([][]*GridCell, resolution)
	for row := range d.Grid {
		d.Grid[row] = make([]*GridCell, resolution)
		for col := range d.Grid[row] {
			area := Rect{
				X: float32(col) * d.CellSize,
				Z: float32(row) * d.CellSize,
				W: d.CellSize,
				H: d.CellSize,
			}
			d.Grid[row][col] = newGridCell(d, row, col, area, &d.nextEntityID)
		}
	}
	for row := range d.Grid {
		for col := range d.Grid[row] {
			cell := d.Grid[row][col]
			cell.Neighbours = append(cell.Neighbours, cell)
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					r, c := row+dr, col+dc
					if r >= 0 && r < resolution && c >= 0 && c < resolution {
						cell.Neighbours = append(cell.Neighbours, d.Grid[r][c])
					}
				}
			}
		}
	}
	return d
}

// CellAt maps a world position to its cell, nil when out of bounds.
func (d *Data) CellAt(pos geom.Vector3) *GridCell {
	col := int(pos.X / d.CellSize)
	row := int(pos.Z / d.CellSize)
	if row < 0 || row >= d.Resolution || col < 0 || col >= d.Resolution {
		return nil
	}
	return d.Grid[row][col]
}

// NextPlayerID hands out map-wide player entity ids. Player ids live
// above 10000 so they never collide with mob and resource ids.
func (d *Data) NextPlayerID() uint16 {
	return uint16(10000 + d.nextPlayerID.Add(1))
}

// AddPlayer places an admitted player on the grid at pos. The entity
// id must already be assigned.
func (d *Data) AddPlayer(p *Player, pos geom.Vector3) {
	p.pos = pos
	cell := d.CellAt(pos)
	if cell == nil {
		cell = d.Grid[0][0]
	}
	cell.AddPlayer(p)
	d.PlayersByID.Store(p.ID(), p)
	d.PlayersByUID.Store(p.UID, p)
	d.RecentlyOnline.Delete(p.CharacterID)
}

// ReAddPlayer migrates a player whose position left its cell. Leaving
// the map entirely is lethal.
func (d *Data) ReAddPlayer(p *Player) {
	cell := d.CellAt(p.Position())
	if cell == nil {
		p.Kill()
		return
	}
	cell.ReAddPlayer(p)
	d.Broadcast.SendGridEntities(p)
	d.Broadcast.SendGridResources(p)
}

// ReAddMob migrates a mob whose position left its cell. A mob that
// wandered off the map snaps back to its spawn.
func (d *Data) ReAddMob(m *Mob) {
	cell := d.CellAt(m.Position())
	if cell == nil {
		m.Respawn()
		return
	}
	cell.ReAddMob(m)
}

// RemovePlayer takes a player offline. The entity stays reachable by
// character id so the master can collect its final state.
func (d *Data) RemovePlayer(p *Player) {
	if p.Conn != nil {
		p.Conn.Close()
	}
	d.RecentlyOnline.Store(p.CharacterID, p)
	d.forgetPlayer(p)
}

// ForgetPlayer drops a player without keeping handoff state, used
// when the character moves to another map server.
func (d *Data) ForgetPlayer(p *Player) {
	d.forgetPlayer(p)
}

func (d *Data) forgetPlayer(p *Player) {
	d.PlayersByID.Delete(p.ID())
	d.PlayersByUID.Delete(p.UID)
	if c := p.Cell(); c != nil {
		c.RemovePlayer(p)
	}
}

// FindPlayer resolves an online player by character id.
func (d *Data) FindPlayer(characterID int32) *Player {
	var found *Player
	d.PlayersByID.Range(func(_ uint16, p *Player) bool {
		if p.CharacterID == characterID {
			found = p
			return false
		}
		return true
	})
	return found
}

// TakeRecentlyOnline pops handoff state left behind by RemovePlayer.
func (d *Data) TakeRecentlyOnline(characterID int32) *Player {
	p, ok := d.RecentlyOnline.LoadAndDelete(characterID)
	if !ok {
		return nil
	}
	return p
}

func (d *Data) PlayerCount() int {
	return d.PlayersByID.Size()
}

// AddAwaiting parks a player approved by the master until the client
// shows up with the session token.
func (d *Data) AddAwaiting(token string, p *Player, ttl time.Duration) {
	d.awaiting.Store(token, awaitingEntry{player: p, expires: time.Now().Add(ttl)})
}

// TakeAwaiting admits the player parked under token, if any.
func (d *Data) TakeAwaiting(token string) (*Player, bool) {
	entry, ok := d.awaiting.LoadAndDelete(token)
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.player, true
}

// SweepAwaiting drops parked players whose clients never arrived.
func (d *Data) SweepAwaiting() {
	now := time.Now()
	d.awaiting.Range(func(token string, entry awaitingEntry) bool {
		if now.After(entry.expires) {
			d.awaiting.Delete(token)
			d.log.Info("admission token expired", zap.String("name", entry.player.Name()))
		}
		return true
	})
}
