// Package classfile decodes the Module attribute of a compiled module
// declaration (module-info.class).
package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const magic = 0xCAFEBABE

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// Flags of the Module attribute.
const (
	AccOpen        = 0x0020
	AccTransitive  = 0x0020
	AccStaticPhase = 0x0040
	AccSynthetic   = 0x1000
	AccMandated    = 0x8000
)

var ErrNoModuleAttribute = errors.New("class file has no Module attribute")

// Requires is one entry of the requires table.
type Requires struct {
	Name    string
	Flags   uint16
	Version string
}

func (r Requires) Transitive() bool { return r.Flags&AccTransitive != 0 }
func (r Requires) Static() bool     { return r.Flags&AccStaticPhase != 0 }
func (r Requires) Mandated() bool   { return r.Flags&AccMandated != 0 }

// ModuleInfo is the decoded Module attribute.
type ModuleInfo struct {
	Name     string
	Flags    uint16
	Version  string
	Requires []Requires
}

func (m *ModuleInfo) Open() bool { return m.Flags&AccOpen != 0 }

type constant struct {
	tag   byte
	utf8  string
	index uint16
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("truncated class file at offset %d", r.pos)
	}
	return nil
}

func (r *reader) u1() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u2() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// ParseModuleInfo decodes data as a class file and returns its Module
// attribute.
func ParseModuleInfo(data []byte) (*ModuleInfo, error) {
	r := &reader{data: data}
	m, err := r.u4()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, fmt.Errorf("not a class file: bad magic %#x", m)
	}
	if err := r.skip(4); err != nil { // minor, major
		return nil, err
	}
	pool, err := r.constantPool()
	if err != nil {
		return nil, err
	}
	// access_flags, this_class, super_class
	if err := r.skip(6); err != nil {
		return nil, err
	}
	interfaces, err := r.u2()
	if err != nil {
		return nil, err
	}
	if err := r.skip(2 * int(interfaces)); err != nil {
		return nil, err
	}
	for range 2 { // fields, methods
		if err := r.skipMembers(); err != nil {
			return nil, err
		}
	}

	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	for range count {
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		if pool.utf8(nameIndex) != "Module" {
			if err := r.skip(int(length)); err != nil {
				return nil, err
			}
			continue
		}
		if err := r.need(int(length)); err != nil {
			return nil, err
		}
		return decodeModule(&reader{data: r.data[r.pos : r.pos+int(length)]}, pool)
	}
	return nil, ErrNoModuleAttribute
}

type pool []constant

func (p pool) utf8(i uint16) string {
	if int(i) < len(p) && p[i].tag == tagUtf8 {
		return p[i].utf8
	}
	return ""
}

// named resolves a Module, Package or Class entry to its name.
func (p pool) named(i uint16) string {
	if int(i) >= len(p) {
		return ""
	}
	return p.utf8(p[i].index)
}

func (r *reader) constantPool() (pool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	p := make(pool, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		c := constant{tag: tag}
		wide := false
		switch tag {
		case tagUtf8:
			n, err := r.u2()
			if err != nil {
				return nil, err
			}
			if err := r.need(int(n)); err != nil {
				return nil, err
			}
			c.utf8 = string(r.data[r.pos : r.pos+int(n)])
			r.pos += int(n)
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			if c.index, err = r.u2(); err != nil {
				return nil, err
			}
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			err = r.skip(4)
		case tagLong, tagDouble:
			err = r.skip(8)
			wide = true
		case tagMethodHandle:
			err = r.skip(3)
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
		}
		if err != nil {
			return nil, err
		}
		p[i] = c
		// Eight-byte constants occupy two slots.
		if wide {
			i++
		}
	}
	return p, nil
}

func (r *reader) skipMembers() error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for range count {
		if err := r.skip(6); err != nil { // access, name, descriptor
			return err
		}
		attrs, err := r.u2()
		if err != nil {
			return err
		}
		for range attrs {
			if err := r.skip(2); err != nil {
				return err
			}
			length, err := r.u4()
			if err != nil {
				return err
			}
			if err := r.skip(int(length)); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeModule(r *reader, p pool) (*ModuleInfo, error) {
	nameIndex, err := r.u2()
	if err != nil {
		return nil, err
	}
	flags, err := r.u2()
	if err != nil {
		return nil, err
	}
	versionIndex, err := r.u2()
	if err != nil {
		return nil, err
	}
	info := &ModuleInfo{Name: p.named(nameIndex), Flags: flags, Version: p.utf8(versionIndex)}
	if info.Name == "" {
		return nil, fmt.Errorf("module attribute names no module")
	}

	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	for range count {
		index, err := r.u2()
		if err != nil {
			return nil, err
		}
		reqFlags, err := r.u2()
		if err != nil {
			return nil, err
		}
		version, err := r.u2()
		if err != nil {
			return nil, err
		}
		info.Requires = append(info.Requires, Requires{Name: p.named(index), Flags: reqFlags, Version: p.utf8(version)})
	}
	return info, nil
}
