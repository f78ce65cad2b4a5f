package testutil

import (
	"encoding/binary"
)

// ModuleRequire describes one requires entry for ModuleInfoClass.
type ModuleRequire struct {
	Name  string
	Flags uint16
}

// ModuleInfoClass encodes a minimal module-info.class naming module and
// requiring each entry of requires.
func ModuleInfoClass(module, version string, requires ...ModuleRequire) []byte {
	var pool [][]byte
	add := func(entry []byte) uint16 {
		pool = append(pool, entry)
		return uint16(len(pool))
	}
	utf8 := func(s string) uint16 {
		e := []byte{1}
		e = binary.BigEndian.AppendUint16(e, uint16(len(s)))
		return add(append(e, s...))
	}
	ref := func(tag byte, index uint16) uint16 {
		return add(binary.BigEndian.AppendUint16([]byte{tag}, index))
	}

	thisClass := ref(7, utf8("module-info"))
	attrName := utf8("Module")
	moduleIndex := ref(19, utf8(module))
	var versionIndex uint16
	if version != "" {
		versionIndex = utf8(version)
	}
	reqIndexes := make([]uint16, len(requires))
	for i, r := range requires {
		reqIndexes[i] = ref(19, utf8(r.Name))
	}

	var attr []byte
	attr = binary.BigEndian.AppendUint16(attr, moduleIndex)
	attr = binary.BigEndian.AppendUint16(attr, 0)
	attr = binary.BigEndian.AppendUint16(attr, versionIndex)
	attr = binary.BigEndian.AppendUint16(attr, uint16(len(requires)))
	for i, r := range requires {
		attr = binary.BigEndian.AppendUint16(attr, reqIndexes[i])
		attr = binary.BigEndian.AppendUint16(attr, r.Flags)
		attr = binary.BigEndian.AppendUint16(attr, 0)
	}
	// exports, opens, uses, provides
	attr = append(attr, 0, 0, 0, 0, 0, 0, 0, 0)

	var out []byte
	out = binary.BigEndian.AppendUint32(out, 0xCAFEBABE)
	out = binary.BigEndian.AppendUint16(out, 0)
	out = binary.BigEndian.AppendUint16(out, 53)
	out = binary.BigEndian.AppendUint16(out, uint16(len(pool)+1))
	for _, e := range pool {
		out = append(out, e...)
	}
	out = binary.BigEndian.AppendUint16(out, 0x8000) // ACC_MODULE
	out = binary.BigEndian.AppendUint16(out, thisClass)
	out = binary.BigEndian.AppendUint16(out, 0) // super
	out = binary.BigEndian.AppendUint16(out, 0) // interfaces
	out = binary.BigEndian.AppendUint16(out, 0) // fields
	out = binary.BigEndian.AppendUint16(out, 0) // methods
	out = binary.BigEndian.AppendUint16(out, 1) // attributes
	out = binary.BigEndian.AppendUint16(out, attrName)
	out = binary.BigEndian.AppendUint32(out, uint32(len(attr)))
	return append(out, attr...)
}
