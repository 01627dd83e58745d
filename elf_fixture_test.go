package armerge

import (
	"debug/elf"
	"encoding/binary"
)

// elfTestSymbol describes one ELF symbol table entry to embed in a
// hand-built fixture object; see buildTestELFObject.
type elfTestSymbol struct {
	name      string
	bind      elf.SymBind
	typ       elf.SymType
	undefined bool
}

// buildTestELFObject assembles a minimal little-endian ELF64 relocatable
// object containing exactly the given symbols, laid out the same way
// internal/objformat's test fixture is (see elfrewrite_test.go), but
// without a .group section: this package's tests only need a parseable
// .symtab, not COMDAT semantics.
func buildTestELFObject(syms []elfTestSymbol) []byte {
	order := binary.LittleEndian

	shstr := []byte{0}
	addShName := func(name string) uint32 {
		off := uint32(len(shstr))
		shstr = append(shstr, []byte(name)...)
		shstr = append(shstr, 0)
		return off
	}
	shstrtabNameOff := addShName(".shstrtab")
	strtabNameOff := addShName(".strtab")
	symtabNameOff := addShName(".symtab")

	strtab := []byte{0}
	const symEntSize = 24
	symtab := make([]byte, symEntSize) // entry 0: mandatory null entry

	for _, s := range syms {
		nameOff := uint32(len(strtab))
		strtab = append(strtab, []byte(s.name)...)
		strtab = append(strtab, 0)

		var e [symEntSize]byte
		order.PutUint32(e[0:4], nameOff)
		e[4] = byte(s.bind)<<4 | byte(s.typ)
		e[5] = 0
		shndx := uint16(1) // an arbitrary defined section; 0 means undefined
		if s.undefined {
			shndx = uint16(elf.SHN_UNDEF)
		}
		order.PutUint16(e[6:8], shndx)
		order.PutUint64(e[8:16], 0)
		order.PutUint64(e[16:24], 0)
		symtab = append(symtab, e[:]...)
	}

	const ehdrSize = 64
	const shdrSize = 64
	const numSections = 4 // NULL, .shstrtab, .strtab, .symtab

	file := make([]byte, ehdrSize)
	place := func(data []byte) int64 {
		off := int64(len(file))
		file = append(file, data...)
		return off
	}

	symtabOff := place(symtab)
	strtabOff := place(strtab)
	shstrtabOff := place(shstr)

	shoff := int64(len(file))

	type shdr struct {
		name, typ           uint32
		flags, addr, offset uint64
		size                uint64
		link, info          uint32
		addralign, entsize  uint64
	}
	headers := []shdr{
		{},
		{name: shstrtabNameOff, typ: uint32(elf.SHT_STRTAB), offset: uint64(shstrtabOff), size: uint64(len(shstr))},
		{name: strtabNameOff, typ: uint32(elf.SHT_STRTAB), offset: uint64(strtabOff), size: uint64(len(strtab))},
		{name: symtabNameOff, typ: uint32(elf.SHT_SYMTAB), offset: uint64(symtabOff), size: uint64(len(symtab)), link: 2, info: 1, entsize: symEntSize},
	}

	for _, h := range headers {
		var b [shdrSize]byte
		order.PutUint32(b[0:4], h.name)
		order.PutUint32(b[4:8], h.typ)
		order.PutUint64(b[8:16], h.flags)
		order.PutUint64(b[16:24], h.addr)
		order.PutUint64(b[24:32], h.offset)
		order.PutUint64(b[32:40], h.size)
		order.PutUint32(b[40:44], h.link)
		order.PutUint32(b[44:48], h.info)
		order.PutUint64(b[48:56], h.addralign)
		order.PutUint64(b[56:64], h.entsize)
		file = append(file, b[:]...)
	}

	file[0], file[1], file[2], file[3] = 0x7f, 'E', 'L', 'F'
	file[4] = byte(elf.ELFCLASS64)
	file[5] = byte(elf.ELFDATA2LSB)
	file[6] = byte(elf.EV_CURRENT)
	order.PutUint16(file[16:18], uint16(elf.ET_REL))
	order.PutUint16(file[18:20], uint16(elf.EM_X86_64))
	order.PutUint32(file[20:24], uint32(elf.EV_CURRENT))
	order.PutUint64(file[40:48], uint64(shoff))
	order.PutUint16(file[52:54], ehdrSize)
	order.PutUint16(file[58:60], shdrSize)
	order.PutUint16(file[60:62], numSections)
	order.PutUint16(file[62:64], 1)

	return file
}
