package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/FeXyK/Authory/internal/world"
)

// Engine wraps a single gopher-lua VM for data-driven skill hooks.
// Single-goroutine access only (simulation loop); every map server
// owns its own Engine.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory yields an engine with no hooks.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// OnSkillHit calls the Lua on_skill_hit(hook, ctx) dispatcher after a
// skill's damage landed. The script gets a read-only context and
// returns stat deltas the simulation applies; it never touches game
// state directly.
func (e *Engine) OnSkillHit(hook string, caster, target world.Combatant, s *world.Skill) {
	fn := e.vm.GetGlobal("on_skill_hit")
	if fn == lua.LNil {
		return
	}

	t := e.vm.NewTable()

	sk := e.vm.NewTable()
	sk.RawSetString("id", lua.LNumber(s.ID))
	sk.RawSetString("school", lua.LNumber(s.School))
	sk.RawSetString("multiplier", lua.LNumber(s.Multiplier))
	t.RawSetString("skill", sk)

	t.RawSetString("caster", e.combatantTable(caster))
	if target != nil {
		t.RawSetString("target", e.combatantTable(target))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(hook), t); err != nil {
		e.log.Error("lua on_skill_hit error", zap.String("hook", hook), zap.Error(err))
		return
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return
	}

	if bonus := lInt(rt, "bonus_damage"); bonus > 0 && target != nil {
		target.TakeTrueDamage(bonus)
	}
	if heal := lInt(rt, "heal_caster"); heal > 0 {
		caster.AddHealth(heal)
	}
	if mana := lInt(rt, "restore_mana"); mana > 0 {
		caster.AddMana(mana)
	}
}

func (e *Engine) combatantTable(c world.Combatant) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(c.ID()))
	t.RawSetString("level", lua.LNumber(c.Level()))
	t.RawSetString("health", lua.LNumber(c.Health().Value))
	t.RawSetString("max_health", lua.LNumber(c.Health().Max))
	t.RawSetString("mana", lua.LNumber(c.Mana().Value))
	t.RawSetString("max_mana", lua.LNumber(c.Mana().Max))
	t.RawSetString("endurance", lua.LNumber(c.Attr(world.Endurance)))
	t.RawSetString("strength", lua.LNumber(c.Attr(world.Strength)))
	t.RawSetString("agility", lua.LNumber(c.Attr(world.Agility)))
	t.RawSetString("intelligence", lua.LNumber(c.Attr(world.Intelligence)))
	t.RawSetString("knowledge", lua.LNumber(c.Attr(world.Knowledge)))
	t.RawSetString("luck", lua.LNumber(c.Attr(world.Luck)))
	return t
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
