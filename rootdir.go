package blockfs

import (
	"bytes"
	"encoding/binary"
)

const (
	maxFiles   = 128 // root directory entry capacity
	maxNameLen = 15  // name bytes excluding the NUL terminator
	entrySize  = 32  // on-disk size of one directory entry
)

// dirEntry mirrors one 32-byte slot of the on-disk root directory. An
// empty name (first byte NUL) marks the slot free.
type dirEntry struct {
	name       [16]byte
	fileSize   uint32
	firstIndex uint16
}

func (e *dirEntry) free() bool { return e.name[0] == 0 }

func (e *dirEntry) nameString() string {
	n := bytes.IndexByte(e.name[:], 0)
	if n < 0 {
		n = len(e.name)
	}
	return string(e.name[:n])
}

// rootDir is the in-memory, fixed-capacity table of directory entries,
// kept loaded from mount to unmount.
type rootDir struct {
	entries [maxFiles]dirEntry
}

// loadRootDir reads the single root directory block into memory.
func loadRootDir(dev BlockDevice, sb superblock) (*rootDir, error) {
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(sb.rootIndex, buf); err != nil {
		return nil, ErrIOError
	}
	rd := &rootDir{}
	for i := range rd.entries {
		off := i * entrySize
		e := &rd.entries[i]
		copy(e.name[:], buf[off:off+16])
		e.fileSize = binary.LittleEndian.Uint32(buf[off+16 : off+20])
		e.firstIndex = binary.LittleEndian.Uint16(buf[off+20 : off+22])
	}
	return rd, nil
}

// flush writes the in-memory directory table back to its device block.
func (rd *rootDir) flush(dev BlockDevice, sb superblock) error {
	buf := make([]byte, BlockSize)
	for i := range rd.entries {
		off := i * entrySize
		e := &rd.entries[i]
		copy(buf[off:off+16], e.name[:])
		binary.LittleEndian.PutUint32(buf[off+16:off+20], e.fileSize)
		binary.LittleEndian.PutUint16(buf[off+20:off+22], e.firstIndex)
	}
	if err := dev.WriteBlock(sb.rootIndex, buf); err != nil {
		return ErrIOError
	}
	return nil
}

// find returns the slot index of name, or ErrNotFound.
func (rd *rootDir) find(name string) (int, error) {
	for i := range rd.entries {
		if !rd.entries[i].free() && rd.entries[i].nameString() == name {
			return i, nil
		}
	}
	return -1, ErrNotFound
}

func validName(name string) bool {
	return len(name) > 0 && len(name) <= maxNameLen
}

// create allocates the first free slot for name.
func (rd *rootDir) create(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if _, err := rd.find(name); err == nil {
		return ErrExists
	}
	for i := range rd.entries {
		if rd.entries[i].free() {
			e := &rd.entries[i]
			*e = dirEntry{}
			copy(e.name[:], name)
			e.fileSize = 0
			e.firstIndex = eoc
			return nil
		}
	}
	return ErrNoSlot
}

// delete locates name, frees its chain via fat, and clears the slot.
// Per the chosen open-question policy (DESIGN.md), this does not consult
// the open-file table; descriptors already open against name are left
// untouched and keep the cached head and size of the freed chain.
func (rd *rootDir) delete(name string, fat *allocTable) error {
	idx, err := rd.find(name)
	if err != nil {
		return err
	}
	fat.freeChain(rd.entries[idx].firstIndex)
	rd.entries[idx] = dirEntry{}
	return nil
}
