package blockfs

import (
	"errors"
	"fmt"
	"io"
)

// Session is a thin facade mapping a signed-integer-returning operation
// table onto the FS/openFileTable/ioengine internals, the way a C driver's
// fs_* functions would drive the same structures directly. Every method
// returns a non-negative value on success (0, or a descriptor, size or
// byte count where documented) and -1 on failure; the Go error behind a
// failure is not passed on.
type Session struct {
	fs     *FS
	device BlockDevice
	out    io.Writer
}

// NewSession returns a facade over fs, writing Info/Ls output to out.
func NewSession(fs *FS, out io.Writer) *Session {
	return &Session{fs: fs, out: out}
}

func negOne() int { return -1 }

// Mount opens the image at path and mounts it.
func (s *Session) Mount(path string) int {
	dev, err := OpenFileDevice(path)
	if err != nil {
		return negOne()
	}
	if err := s.fs.Mount(dev); err != nil {
		dev.Close()
		return negOne()
	}
	s.device = dev
	return 0
}

// Umount flushes and closes the mounted device.
func (s *Session) Umount() int {
	if err := s.fs.Unmount(); err != nil {
		return negOne()
	}
	s.device = nil
	return 0
}

// Info prints the volume layout and free-space ratios.
func (s *Session) Info() int {
	if !s.fs.mounted {
		return negOne()
	}
	sb := s.fs.sb
	fmt.Fprintf(s.out, "total_blk_count=%d\n", sb.blockTotal)
	fmt.Fprintf(s.out, "fat_blk_count=%d\n", sb.fatBlocks)
	fmt.Fprintf(s.out, "rdir_blk=%d\n", sb.rootIndex)
	fmt.Fprintf(s.out, "data_blk=%d\n", sb.dataStart)
	fmt.Fprintf(s.out, "data_blk_count=%d\n", sb.dataCount)
	fmt.Fprintf(s.out, "fat_free_ratio=%d/%d\n", s.fs.fat.freeCount(), sb.dataCount)
	fmt.Fprintf(s.out, "rdir_free_ratio=%d/%d\n", countFreeSlots(s.fs.root), maxFiles)
	return 0
}

func countFreeSlots(rd *rootDir) int {
	n := 0
	for i := range rd.entries {
		if rd.entries[i].free() {
			n++
		}
	}
	return n
}

// Create creates an empty file named name.
func (s *Session) Create(name string) int {
	if !s.fs.mounted {
		return negOne()
	}
	if err := s.fs.root.create(name); err != nil {
		return negOne()
	}
	return 0
}

// Delete removes name and frees its chain.
func (s *Session) Delete(name string) int {
	if !s.fs.mounted {
		return negOne()
	}
	if err := s.fs.root.delete(name, s.fs.fat); err != nil {
		return negOne()
	}
	return 0
}

// Ls prints one line per occupied directory slot.
func (s *Session) Ls() int {
	if !s.fs.mounted {
		return negOne()
	}
	for i := range s.fs.root.entries {
		e := &s.fs.root.entries[i]
		if e.free() {
			continue
		}
		fmt.Fprintf(s.out, "file: %s, size: %d, data_blk: %d\n", e.nameString(), e.fileSize, e.firstIndex)
	}
	return 0
}

// Open opens name and returns its descriptor, or a negative code.
func (s *Session) Open(name string) int {
	if !s.fs.mounted {
		return negOne()
	}
	fd, err := s.fs.openFiles.allocate(s.fs.root, name)
	if err != nil {
		return negOne()
	}
	return fd
}

// Close releases fd.
func (s *Session) Close(fd int) int {
	if !s.fs.mounted {
		return negOne()
	}
	if err := s.fs.openFiles.close(fd); err != nil {
		return negOne()
	}
	return 0
}

// Stat returns fd's cached size in bytes, or a negative code.
func (s *Session) Stat(fd int) int {
	if !s.fs.mounted {
		return negOne()
	}
	d, err := s.fs.openFiles.get(fd)
	if err != nil {
		return negOne()
	}
	return int(d.fileSize)
}

// Lseek repositions fd's cursor to off.
func (s *Session) Lseek(fd int, off int) int {
	if !s.fs.mounted {
		return negOne()
	}
	d, err := s.fs.openFiles.get(fd)
	if err != nil {
		return negOne()
	}
	if off < 0 || off > int(d.fileSize) {
		return negOne()
	}
	d.offset = uint32(off)
	return 0
}

// Read reads up to n bytes from fd into buf, returning the count read.
func (s *Session) Read(fd int, buf []byte, n int) int {
	if !s.fs.mounted {
		return negOne()
	}
	if n > len(buf) {
		n = len(buf)
	}
	read, err := s.fs.readAt(fd, buf[:n])
	if err != nil && !errors.Is(err, io.EOF) {
		return negOne()
	}
	return read
}

// Write writes up to n bytes from buf to fd, returning the count written.
// A disk-full short write is success, not a negative code.
func (s *Session) Write(fd int, buf []byte, n int) int {
	if !s.fs.mounted {
		return negOne()
	}
	if n > len(buf) {
		n = len(buf)
	}
	written, err := s.fs.writeAt(fd, buf[:n])
	if err != nil && !errors.Is(err, ErrNoSpace) {
		return negOne()
	}
	return written
}
