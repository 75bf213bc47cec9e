package luahost

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

const (
	dumbsterName       = "dumbster"
	dumbsterAfterName  = "dumbster_after"
	dumbsterBeforeName = "dumbster_before"
)

// Dumbster is the value of the `dumbster` global, scripts assign event functions to its fields.
type Dumbster struct {
	After  AfterFuncs
	Before BeforeFuncs
}

// AfterFuncs are called asynchronously once an event has completed.
type AfterFuncs struct {
	MessageDeleted *lua.LFunction
	MessageStored  *lua.LFunction
}

// BeforeFuncs are called synchronously, their results may alter the event.
type BeforeFuncs struct {
	MessageStored *lua.LFunction
}

var (
	dumbsterProps = properties[Dumbster]{
		"after": {get: func(ls *lua.LState, db *Dumbster) lua.LValue {
			return wrapUserData(ls, dumbsterAfterName, &db.After)
		}},
		"before": {get: func(ls *lua.LState, db *Dumbster) lua.LValue {
			return wrapUserData(ls, dumbsterBeforeName, &db.Before)
		}},
	}
	dumbsterAfterProps = properties[AfterFuncs]{
		"message_deleted": funcProperty(func(a *AfterFuncs) **lua.LFunction { return &a.MessageDeleted }),
		"message_stored":  funcProperty(func(a *AfterFuncs) **lua.LFunction { return &a.MessageStored }),
	}
	dumbsterBeforeProps = properties[BeforeFuncs]{
		"message_stored": funcProperty(func(b *BeforeFuncs) **lua.LFunction { return &b.MessageStored }),
	}
)

func registerDumbsterTypes(ls *lua.LState) {
	dumbsterProps.metatable(ls, dumbsterName)
	dumbsterAfterProps.metatable(ls, dumbsterAfterName)
	dumbsterBeforeProps.metatable(ls, dumbsterBeforeName)
	ls.SetGlobal(dumbsterName, wrapUserData(ls, dumbsterName, &Dumbster{}))
}

func wrapUserData(ls *lua.LState, typeName string, val any) *lua.LUserData {
	ud := ls.NewUserData()
	ud.Value = val
	ls.SetMetatable(ud, ls.GetTypeMetatable(typeName))
	return ud
}

// getDumbster returns the Dumbster value of the global in ls.
func getDumbster(ls *lua.LState) (*Dumbster, error) {
	lv := ls.GetGlobal(dumbsterName)
	if lv == lua.LNil {
		return nil, errors.New("dumbster global was nil")
	}
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, fmt.Errorf("dumbster global was type %s instead of UserData", lv.Type())
	}
	val, ok := ud.Value.(*Dumbster)
	if !ok {
		return nil, fmt.Errorf("dumbster global (%v) could not be cast", ud.Value)
	}
	return val, nil
}

func checkUserData[T any](ls *lua.LState, pos int, typeName string) *T {
	ud := ls.CheckUserData(pos)
	if val, ok := ud.Value.(*T); ok {
		return val
	}
	ls.ArgError(pos, typeName+" expected")
	return nil
}
