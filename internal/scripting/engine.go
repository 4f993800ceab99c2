package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Fallback supplies the built-in rule when a Lua function is missing or fails.
type Fallback interface {
	HitDamage(base, hitIndex int, splash bool) int
	OrbValue(xp, playerLevel int) int
	XPToLevel(level int) int
}

// Engine wraps a single gopher-lua VM for gameplay rules.
// Single-goroutine access only (tick goroutine).
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	fallback Fallback
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, fallback Fallback, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, fallback: fallback}

	// Core scripts first (level curve), then combat and drops
	for _, sub := range []string{"core", "combat", "drops"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
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

// Has reports whether a global Lua function with the given name is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// HitDamage calls Lua calc_hit_damage({damage, hit_index, splash}).
func (e *Engine) HitDamage(base, hitIndex int, splash bool) int {
	fn := e.vm.GetGlobal("calc_hit_damage")
	if fn == lua.LNil {
		return e.fallback.HitDamage(base, hitIndex, splash)
	}

	t := e.vm.NewTable()
	t.RawSetString("damage", lua.LNumber(base))
	t.RawSetString("hit_index", lua.LNumber(hitIndex))
	t.RawSetString("splash", lua.LBool(splash))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_hit_damage error", zap.Error(err))
		return e.fallback.HitDamage(base, hitIndex, splash)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_hit_damage returned non-number", zap.String("type", result.Type().String()))
		return e.fallback.HitDamage(base, hitIndex, splash)
	}
	return max(int(n), 0)
}

// OrbValue calls Lua calc_orb_value(xp, player_level).
func (e *Engine) OrbValue(xp, playerLevel int) int {
	v, ok := e.callIntFunc("calc_orb_value", xp, playerLevel)
	if !ok {
		return e.fallback.OrbValue(xp, playerLevel)
	}
	return max(v, 0)
}

// XPToLevel calls Lua xp_to_level(level): experience needed to leave level.
func (e *Engine) XPToLevel(level int) int {
	v, ok := e.callIntFunc("xp_to_level", level)
	if !ok || v <= 0 {
		return e.fallback.XPToLevel(level)
	}
	return v
}

func (e *Engine) callIntFunc(name string, args ...int) (int, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return 0, false
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number", zap.String("func", name))
		return 0, false
	}
	return int(n), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
