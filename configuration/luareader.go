// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/bisq-network/datastore/fault"
)

// ParseConfigurationFile - read and execute a Lua file and assign
// the results to a configuration structure
//
// config must be a pointer to a structure pre-filled with defaults;
// keys absent from the returned table leave the default unchanged
func ParseConfigurationFile(fileName string, config interface{}) error {
	return parse(config, func(L *lua.LState) error {
		// create the global "arg" table
		// arg[0] = config file
		arg := &lua.LTable{}
		arg.Insert(0, lua.LString(fileName))
		L.SetGlobal("arg", arg)
		return L.DoFile(fileName)
	})
}

// ParseConfigurationString - as ParseConfigurationFile with the Lua
// source given directly
func ParseConfigurationString(source string, config interface{}) error {
	return parse(config, func(L *lua.LState) error {
		return L.DoString(source)
	})
}

func parse(config interface{}, execute func(*lua.LState) error) error {
	v := reflect.ValueOf(config)
	if reflect.Ptr != v.Kind() || v.IsNil() || reflect.Struct != v.Elem().Kind() {
		return fault.ErrInvalidStructPointer
	}

	L := lua.NewState()
	defer L.Close()

	L.OpenLibs()

	if err := execute(L); nil != err {
		return errors.Wrap(err, "configuration")
	}

	table, ok := L.Get(L.GetTop()).(*lua.LTable)
	if !ok {
		return errors.New("configuration: file must return a table")
	}

	mapperOption := gluamapper.Option{
		NameFunc: func(s string) string {
			return s
		},
		TagName: "gluamapper",
	}
	mapper := gluamapper.Mapper{Option: mapperOption}
	return mapper.Map(table, config)
}
