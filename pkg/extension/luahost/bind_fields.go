package luahost

import (
	lua "github.com/yuin/gopher-lua"
)

// property is a table-like field of a bound Go value.  Properties without set are read-only.
type property[T any] struct {
	get func(ls *lua.LState, v *T) lua.LValue
	set func(ls *lua.LState, v *T, arg int)
}

// properties maps Lua field names to the accessors of a bound type.
type properties[T any] map[string]property[T]

// metatable creates the metatable for typeName, so that `v.name` and `v.name = x` on userdata
// holding a *T go through props.  Unknown fields read as nil and raise on assignment.
func (props properties[T]) metatable(ls *lua.LState, typeName string) *lua.LTable {
	mt := ls.NewTypeMetatable(typeName)
	ls.SetField(mt, "__index", ls.NewFunction(func(ls *lua.LState) int {
		v := checkUserData[T](ls, 1, typeName)
		if p, ok := props[ls.CheckString(2)]; ok {
			ls.Push(p.get(ls, v))
		} else {
			ls.Push(lua.LNil)
		}
		return 1
	}))
	ls.SetField(mt, "__newindex", ls.NewFunction(func(ls *lua.LState) int {
		v := checkUserData[T](ls, 1, typeName)
		name := ls.CheckString(2)
		p, ok := props[name]
		switch {
		case !ok:
			ls.RaiseError("invalid %s index %q", typeName, name)
		case p.set == nil:
			ls.RaiseError("%s is read-only", name)
		default:
			p.set(ls, v, 3)
		}
		return 0
	}))
	return mt
}

// global registers the metatable as a Lua global with a `new` constructor.
func (props properties[T]) global(ls *lua.LState, typeName string, ctor lua.LGFunction) {
	mt := props.metatable(ls, typeName)
	ls.SetField(mt, "new", ls.NewFunction(ctor))
	ls.SetGlobal(typeName, mt)
}

func stringProperty[T any](field func(*T) *string) property[T] {
	return property[T]{
		get: func(_ *lua.LState, v *T) lua.LValue { return lua.LString(*field(v)) },
		set: func(ls *lua.LState, v *T, arg int) { *field(v) = ls.CheckString(arg) },
	}
}

func funcProperty[T any](field func(*T) **lua.LFunction) property[T] {
	return property[T]{
		get: func(_ *lua.LState, v *T) lua.LValue {
			if f := *field(v); f != nil {
				return f
			}
			return lua.LNil
		},
		set: func(ls *lua.LState, v *T, arg int) { *field(v) = ls.CheckFunction(arg) },
	}
}
