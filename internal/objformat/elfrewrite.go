// Package objformat implements the two binary-rewriting operations the
// spec calls out as needing byte-level control that debug/elf's read-only
// API doesn't offer: demoting a symbol's ELF binding to local, and clearing
// the COMDAT flag of a section group whose signature symbol was demoted.
//
// debug/elf has no write support at all, so both operations work directly
// against the raw byte slice, using debug/elf only to locate the relevant
// section and symbol-table offsets within it.
package objformat

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
)

// elfSymtab is the parsed location of one ELF object's symbol table: the
// file-offset ranges of .symtab and its linked .strtab, plus the decoded
// entries needed to cross-reference a symbol's index with its name.
type elfSymtab struct {
	order      binary.ByteOrder
	is64       bool
	entSize    int
	symOff     int64
	symSize    int64
	strOff     int64
	strSize    int64
	numEntries int
}

const (
	stInfoOffset32 = 12
	stInfoOffset64 = 4
	stNameOffset   = 0

	grpComdat = 0x1
)

func locateSymtab(f *elf.File) (*elfSymtab, error) {
	for _, sect := range f.Sections {
		if sect.Type != elf.SHT_SYMTAB {
			continue
		}
		if int(sect.Link) >= len(f.Sections) {
			return nil, errors.New("symtab sh_link out of range")
		}
		str := f.Sections[sect.Link]

		entSize := 24
		if f.Class == elf.ELFCLASS32 {
			entSize = 16
		}
		if sect.Entsize != 0 {
			entSize = int(sect.Entsize)
		}

		return &elfSymtab{
			order:      f.ByteOrder,
			is64:       f.Class == elf.ELFCLASS64,
			entSize:    entSize,
			symOff:     int64(sect.Offset),
			symSize:    int64(sect.Size),
			strOff:     int64(str.Offset),
			strSize:    int64(str.Size),
			numEntries: int(sect.Size) / entSize,
		}, nil
	}
	return nil, errors.New("object has no .symtab section")
}

func (t *elfSymtab) name(data []byte, strOffset uint32) string {
	start := t.strOff + int64(strOffset)
	if start < 0 || start >= int64(len(data)) {
		return ""
	}
	end := start
	for end < int64(len(data)) && data[end] != 0 {
		end++
	}
	return string(data[start:end])
}

func (t *elfSymtab) entryOffset(i int) int64 {
	return t.symOff + int64(i)*int64(t.entSize)
}

func (t *elfSymtab) nameFieldOffset(i int) int64 {
	return t.entryOffset(i) + stNameOffset
}

func (t *elfSymtab) infoFieldOffset(i int) int64 {
	off := stInfoOffset32
	if t.is64 {
		off = stInfoOffset64
	}
	return t.entryOffset(i) + int64(off)
}

// LocalizeSymbols rewrites the .symtab of an ELF relocatable object so that
// every global or weak symbol for which shouldLocalize returns true becomes
// STB_LOCAL, leaving its STT_* type untouched. It returns the set of symbol
// names that were actually demoted, which the caller needs to drive
// DemoteComdatGroups.
func LocalizeSymbols(data []byte, shouldLocalize func(name string) bool) (localized map[string]bool, err error) {
	f, err := elf.NewFile(newReaderAt(data))
	if err != nil {
		return nil, fmt.Errorf("parsing merged object: %w", err)
	}
	defer f.Close()

	tab, err := locateSymtab(f)
	if err != nil {
		return nil, err
	}

	localized = make(map[string]bool)
	for i := 0; i < tab.numEntries; i++ {
		nameOff := tab.order.Uint32(data[tab.nameFieldOffset(i) : tab.nameFieldOffset(i)+4])
		name := tab.name(data, nameOff)
		if name == "" {
			continue
		}

		infoOff := tab.infoFieldOffset(i)
		info := data[infoOff]
		bind := elf.ST_BIND(info)
		typ := elf.ST_TYPE(info)

		if bind != elf.STB_GLOBAL && bind != elf.STB_WEAK {
			continue
		}
		if !shouldLocalize(name) {
			continue
		}

		data[infoOff] = byte(elf.STB_LOCAL)<<4 | byte(typ)&0xf
		localized[name] = true
	}

	return localized, nil
}

// DemoteComdatGroups clears the COMDAT flag of every SHT_GROUP section
// whose signature symbol (identified via sh_info into the already-located
// symbol table) is in localized, so a downstream linker no longer treats
// that group as a deduplication candidate and can never fold its sections
// with an incompatible alternative definition.
func DemoteComdatGroups(data []byte, localized map[string]bool) error {
	if len(localized) == 0 {
		return nil
	}

	f, err := elf.NewFile(newReaderAt(data))
	if err != nil {
		return fmt.Errorf("parsing merged object: %w", err)
	}
	defer f.Close()

	tab, err := locateSymtab(f)
	if err != nil {
		// An object with COMDAT groups necessarily has a symbol table; if
		// we can't find one, there's nothing more to demote.
		return nil
	}

	for _, sect := range f.Sections {
		if sect.Type != elf.SHT_GROUP {
			continue
		}
		symIdx := int(sect.Info)
		if symIdx <= 0 || symIdx >= tab.numEntries {
			continue
		}
		nameOff := tab.order.Uint32(data[tab.nameFieldOffset(symIdx) : tab.nameFieldOffset(symIdx)+4])
		sigName := tab.name(data, nameOff)
		if !localized[sigName] {
			continue
		}

		flagsOff := int64(sect.Offset)
		flags := tab.order.Uint32(data[flagsOff : flagsOff+4])
		if flags&grpComdat == 0 {
			continue
		}
		flags &^= grpComdat
		tab.order.PutUint32(data[flagsOff:flagsOff+4], flags)
	}

	return nil
}
