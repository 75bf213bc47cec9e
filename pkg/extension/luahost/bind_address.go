package luahost

import (
	"net/mail"

	lua "github.com/yuin/gopher-lua"
)

const mailAddressName = "address"

var mailAddressProps = properties[mail.Address]{
	"name":    stringProperty(func(a *mail.Address) *string { return &a.Name }),
	"address": stringProperty(func(a *mail.Address) *string { return &a.Address }),
}

// address.new(name, address)
func registerMailAddressType(ls *lua.LState) {
	mailAddressProps.global(ls, mailAddressName, func(ls *lua.LState) int {
		ls.Push(wrapMailAddress(ls, &mail.Address{
			Name:    ls.OptString(1, ""),
			Address: ls.OptString(2, ""),
		}))
		return 1
	})
}

func wrapMailAddress(ls *lua.LState, val *mail.Address) lua.LValue {
	if val == nil {
		return lua.LNil
	}
	return wrapUserData(ls, mailAddressName, val)
}

func unwrapMailAddress(lv lua.LValue) (*mail.Address, bool) {
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	val, ok := ud.Value.(*mail.Address)
	return val, ok
}

func checkMailAddress(ls *lua.LState, pos int) *mail.Address {
	return checkUserData[mail.Address](ls, pos, mailAddressName)
}

// checkMailAddressList converts the table at pos into a list of addresses, raising an error for
// any entry that is not an address.
func checkMailAddressList(ls *lua.LState, pos int) []*mail.Address {
	lt := ls.CheckTable(pos)
	addrs := make([]*mail.Address, 0, lt.Len())
	lt.ForEach(func(_, lv lua.LValue) {
		addr, ok := unwrapMailAddress(lv)
		if !ok {
			ls.ArgError(pos, "list of "+mailAddressName+" expected")
			return
		}
		addrs = append(addrs, addr)
	})
	return addrs
}

func wrapMailAddressList(ls *lua.LState, addrs []*mail.Address) *lua.LTable {
	lt := ls.CreateTable(len(addrs), 0)
	for _, a := range addrs {
		lt.Append(wrapMailAddress(ls, a))
	}
	return lt
}
