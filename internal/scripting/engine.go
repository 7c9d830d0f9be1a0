// Package scripting wraps a single gopher-lua VM so studio users can ship
// per-entity behaviors as scripts instead of compiled systems.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps one Lua VM. Single-goroutine access only (frame loop).
//
// Scripts register behaviors by calling
//
//	register_behavior("spin", function(ctx) ... return ctx end)
//
// where ctx carries dt, entity, and the x/y/z position. The returned table
// (if any) overrides the position.
type Engine struct {
	vm        *lua.LState
	behaviors map[string]*lua.LFunction
	log       *zap.Logger
}

// NewEngine creates a Lua engine and loads every .lua file in dir. A
// missing directory is not an error; the engine simply has no behaviors.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:        vm,
		behaviors: make(map[string]*lua.LFunction, 8),
		log:       log,
	}
	vm.SetGlobal("register_behavior", vm.NewFunction(e.luaRegisterBehavior))

	if err := e.loadDir(dir); err != nil {
		vm.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

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
		e.log.Debug("loaded behavior script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) luaRegisterBehavior(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	if _, exists := e.behaviors[name]; exists {
		L.RaiseError("behavior %q already registered", name)
		return 0
	}
	e.behaviors[name] = fn
	return 0
}

// Behaviors returns the registered behavior names.
func (e *Engine) Behaviors() []string {
	names := make([]string, 0, len(e.behaviors))
	for name := range e.behaviors {
		names = append(names, name)
	}
	return names
}

// HasBehavior reports whether a behavior with the name was registered.
func (e *Engine) HasBehavior(name string) bool {
	_, ok := e.behaviors[name]
	return ok
}

// BehaviorContext is the pre-packed data handed to a behavior's update.
type BehaviorContext struct {
	Dt      float64
	Entity  uint64
	X, Y, Z float64
}

// BehaviorResult is the position a behavior computed for the entity.
type BehaviorResult struct {
	X, Y, Z float64
}

// UpdateBehavior runs the named behavior once. The behavior may return a
// table with x/y/z to move the entity; returning nothing keeps the
// current position.
func (e *Engine) UpdateBehavior(name string, ctx BehaviorContext) (BehaviorResult, error) {
	out := BehaviorResult{X: ctx.X, Y: ctx.Y, Z: ctx.Z}
	fn, ok := e.behaviors[name]
	if !ok {
		return out, fmt.Errorf("behavior %q not registered", name)
	}

	tbl := e.vm.NewTable()
	tbl.RawSetString("dt", lua.LNumber(ctx.Dt))
	tbl.RawSetString("entity", lua.LNumber(ctx.Entity))
	tbl.RawSetString("x", lua.LNumber(ctx.X))
	tbl.RawSetString("y", lua.LNumber(ctx.Y))
	tbl.RawSetString("z", lua.LNumber(ctx.Z))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, tbl); err != nil {
		return out, fmt.Errorf("behavior %q: %w", name, err)
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	res, ok := ret.(*lua.LTable)
	if !ok {
		return out, nil
	}
	if v, ok := res.RawGetString("x").(lua.LNumber); ok {
		out.X = float64(v)
	}
	if v, ok := res.RawGetString("y").(lua.LNumber); ok {
		out.Y = float64(v)
	}
	if v, ok := res.RawGetString("z").(lua.LNumber); ok {
		out.Z = float64(v)
	}
	return out, nil
}
