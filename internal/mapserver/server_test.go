package mapserver

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/geom"
	"github.com/FeXyK/Authory/internal/transport"
	"github.com/FeXyK/Authory/internal/wire"
	"github.com/FeXyK/Authory/internal/world"
)

type fakeSkills map[world.SkillID]*world.Skill

func (f fakeSkills) Skill(id world.SkillID) *world.Skill {
	tpl, ok := f[id]
	if !ok {
		return nil
	}
	return tpl.Clone()
}

func testSkills() fakeSkills {
	return fakeSkills{
		0: {
			ID:             0,
			Kind:           world.KindDirect,
			School:         world.Physical,
			Cost:           world.CostMana,
			CostValue:      10,
			Multiplier:     2,
			MaxTargetRange: 15,
			CastDuration:   0.5,
			Cooldown:       1,
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	d := world.NewData(0, "proving-grounds", 2000, 10, zap.NewNop())
	d.Skills = testSkills()
	return New(d, nil, 7100, 50*time.Millisecond, zap.NewNop())
}

// newClientPlayer places an online player and returns the client half
// of its connection.
func newClientPlayer(t *testing.T, s *Server, name string, pos geom.Vector3) (*world.Player, transport.Conn) {
	t.Helper()
	p := world.NewPlayer(s.Data, name, world.StandardPlayer, 1)
	p.SetID(s.Data.NextPlayerID())
	server, client := transport.Pipe()
	p.Conn = server
	s.Data.AddPlayer(p, pos)
	return p, client
}

// drain empties every message currently queued on the client half.
func drain(c transport.Conn) [][]byte {
	var out [][]byte
	for {
		select {
		case msg, ok := <-c.Receive():
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func messageTypes(msgs [][]byte) []wire.MsgType {
	types := make([]wire.MsgType, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, wire.NewReader(m).Type())
	}
	return types
}

func hasType(msgs [][]byte, t wire.MsgType) bool {
	for _, m := range msgs {
		if wire.NewReader(m).Type() == t {
			return true
		}
	}
	return false
}

func TestAdmissionSendsInitialState(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	p := world.NewPlayer(s.Data, "Arin", world.StandardPlayer, 1)
	p.SetID(s.Data.NextPlayerID())
	p.SetPosition(geom.New(150, 0, 150))
	server, client := transport.Pipe()

	s.admit(admission{player: p, conn: server})

	msgs := drain(client)
	if len(msgs) == 0 {
		t.Fatal("admitted player received nothing")
	}
	if got := wire.NewReader(msgs[0]).Type(); got != wire.MsgPlayerID {
		t.Fatalf("first message = %d, want MsgPlayerID", got)
	}
	if !hasType(msgs, wire.MsgGridFullEntityUpdate) {
		t.Fatalf("no grid snapshot among %v", messageTypes(msgs))
	}
	if _, ok := s.Data.PlayersByID.Load(p.ID()); !ok {
		t.Fatal("player not on the grid after admission")
	}
}

func TestHandshakeRejectsUnknownToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	server, client := transport.Pipe()
	hail := wire.NewRawWriter()
	hail.WriteS("no-such-token")
	if err := client.Send(hail.Bytes(), transport.ReliableOrdered); err != nil {
		t.Fatal(err)
	}

	s.handshake(server)

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("connection with a bad token was not closed")
	}
}

func TestHandshakeAcceptsParkedToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	p := world.NewPlayer(s.Data, "Arin", world.StandardPlayer, 1)
	p.SetID(s.Data.NextPlayerID())
	s.Data.AddAwaiting("session-token", p, time.Minute)

	server, client := transport.Pipe()
	hail := wire.NewRawWriter()
	hail.WriteS("session-token")
	if err := client.Send(hail.Bytes(), transport.ReliableOrdered); err != nil {
		t.Fatal(err)
	}

	s.handshake(server)

	select {
	case a := <-s.admissions:
		if a.player != p {
			t.Fatal("handshake admitted the wrong player")
		}
	default:
		t.Fatal("valid token produced no admission")
	}
}

func TestMovementRejectsImpossibleSpeed(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	p, client := newClientPlayer(t, s, "Arin", geom.New(100, 0, 100))
	drain(client)

	w := wire.NewWriter(wire.MsgPlayerMovement)
	w.WriteH(s.quant.Quantize(500))
	w.WriteH(s.quant.Quantize(500))
	w.WriteH(s.quant.Quantize(500))
	w.WriteH(s.quant.Quantize(500))
	w.WriteC(byte(wire.ActionRun))
	s.handle(p, w.Bytes())

	if got := p.Position(); got.X != 100 || got.Z != 100 {
		t.Fatalf("teleport hack moved the player to %v", got)
	}
	if !hasType(drain(client), wire.MsgPositionCorrection) {
		t.Fatal("no position correction sent")
	}
}

func TestMovementBatchesToNeighbourhood(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	p, _ := newClientPlayer(t, s, "Arin", geom.New(100, 0, 100))
	_, watcher := newClientPlayer(t, s, "Beren", geom.New(120, 0, 120))
	drain(watcher)

	w := wire.NewWriter(wire.MsgPlayerMovement)
	w.WriteH(s.quant.Quantize(102))
	w.WriteH(s.quant.Quantize(102))
	w.WriteH(s.quant.Quantize(110))
	w.WriteH(s.quant.Quantize(110))
	w.WriteC(byte(wire.ActionRun))
	s.handle(p, w.Bytes())
	s.flushMovement()

	msgs := drain(watcher)
	for _, m := range msgs {
		r := wire.NewReader(m)
		if r.Type() != wire.MsgPlayerMovement {
			continue
		}
		count := r.ReadH()
		if count != 1 {
			t.Fatalf("batch count = %d, want 1", count)
		}
		if id := r.ReadH(); id != p.ID() {
			t.Fatalf("batched id = %d, want %d", id, p.ID())
		}
		if p.DirtyPos {
			t.Fatal("dirty flag survived the flush")
		}
		return
	}
	t.Fatalf("no movement batch among %v", messageTypes(msgs))
}

func TestMovementInterruptsChanneledCast(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	p, _ := newClientPlayer(t, s, "Arin", geom.New(100, 0, 100))
	mob := world.NewMob(s.Data, testMobTemplate(), geom.New(110, 0, 100))
	s.Data.CellAt(mob.Position()).AddMob(mob)

	w := wire.NewWriter(wire.MsgSkillRequest)
	w.WriteH(mob.ID())
	w.WriteC(0)
	s.handle(p, w.Bytes())
	if !p.IsCasting() {
		t.Fatal("skill request did not start the cast")
	}

	mv := wire.NewWriter(wire.MsgPlayerMovement)
	mv.WriteH(s.quant.Quantize(105))
	mv.WriteH(s.quant.Quantize(100))
	mv.WriteH(s.quant.Quantize(105))
	mv.WriteH(s.quant.Quantize(100))
	mv.WriteC(byte(wire.ActionRun))
	s.handle(p, mv.Bytes())

	if p.IsCasting() {
		t.Fatal("moving off the channel position did not interrupt the cast")
	}
}

func TestSkillRequestOutOfRange(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	p, client := newClientPlayer(t, s, "Arin", geom.New(100, 0, 100))
	mob := world.NewMob(s.Data, testMobTemplate(), geom.New(180, 0, 100))
	s.Data.CellAt(mob.Position()).AddMob(mob)
	drain(client)

	w := wire.NewWriter(wire.MsgSkillRequest)
	w.WriteH(mob.ID())
	w.WriteC(0)
	s.handle(p, w.Bytes())

	if p.IsCasting() {
		t.Fatal("out-of-range request started a cast")
	}
	for _, m := range drain(client) {
		r := wire.NewReader(m)
		if r.Type() == wire.MsgSystemInfo {
			if got := wire.SystemMsg(r.ReadC()); got != wire.SysOutOfRange {
				t.Fatalf("system message = %d, want out of range", got)
			}
			return
		}
	}
	t.Fatal("no out-of-range notice sent")
}

func TestRespawnRequiresDeath(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	p, _ := newClientPlayer(t, s, "Arin", geom.New(100, 0, 100))

	p.Health().Value = 1
	s.handle(p, wire.NewWriter(wire.MsgRespawn).Bytes())
	if p.Health().Value != 1 {
		t.Fatal("respawn request healed a living player")
	}

	p.Kill()
	s.handle(p, wire.NewWriter(wire.MsgRespawn).Bytes())
	if p.IsDead() {
		t.Fatal("dead player did not respawn")
	}
	if !p.Health().IsFull() {
		t.Fatal("respawn left the health pool drained")
	}
}

func TestInteractReachesNeighbourCell(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.MapChange = func(p *world.Player, mapIndex int32) {
		if mapIndex != 3 {
			t.Fatalf("map change to %d, want 3", mapIndex)
		}
	}
	// Player near the cell edge, the gate just across it.
	p, _ := newClientPlayer(t, s, "Arin", geom.New(198, 0, 100))
	gate := world.NewTeleport(s.Data, "Eastgate", geom.New(202, 0, 100), 3, 10)
	if !s.Data.PlaceTeleport(gate) {
		t.Fatal("gate placement failed")
	}

	w := wire.NewWriter(wire.MsgInteract)
	w.WriteH(gate.ID())
	s.handle(p, w.Bytes())

	if _, ok := s.Data.PlayersByID.Load(p.ID()); ok {
		t.Fatal("player still on the grid after stepping through the gate")
	}
}

func TestDropPlayerBroadcastsDisconnect(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	p, client := newClientPlayer(t, s, "Arin", geom.New(100, 0, 100))
	_, watcher := newClientPlayer(t, s, "Beren", geom.New(120, 0, 120))
	client.Close()
	drain(watcher)

	s.dropPlayer(p)

	if !hasType(drain(watcher), wire.MsgDisconnect) {
		t.Fatal("no disconnect broadcast")
	}
	if got := s.Data.TakeRecentlyOnline(p.CharacterID); got != p {
		t.Fatal("dropped player left no handoff state")
	}
}

func TestGridSnapshotChunks(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	p, client := newClientPlayer(t, s, "Arin", geom.New(100, 0, 100))

	tpl := testMobTemplate()
	spawner := world.Spawner{Template: tpl, Center: geom.New(100, 0, 100), Radius: 30, Count: 80}
	spawner.Populate(s.Data)
	drain(client)

	s.SendGridEntities(p)

	msgs := drain(client)
	if len(msgs) < 2 {
		t.Fatalf("80 mobs fit into %d message(s)", len(msgs))
	}
	total := 0
	for _, m := range msgs {
		r := wire.NewReader(m)
		if r.Type() != wire.MsgGridFullEntityUpdate {
			t.Fatalf("unexpected message type %d in snapshot", r.Type())
		}
		total += int(r.ReadH())
	}
	if total != 81 { // 80 mobs and the player itself
		t.Fatalf("snapshot carried %d entities, want 81", total)
	}
}

func testMobTemplate() *world.MobTemplate {
	return &world.MobTemplate{
		Name:          "Feral Brute",
		Model:         world.MeleeNPC,
		Level:         3,
		Attrs:         [6]int{25, 25, 25, 25, 100, 25},
		MovementSpeed: 10,
		SkillID:       0,
	}
}
