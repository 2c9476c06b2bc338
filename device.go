package blockfs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// BlockSize is the fixed block size of every image this package mounts.
const BlockSize = 4096

// BlockDevice is a fixed-size block I/O transport over an image file.
// Implementations must transfer exactly BlockSize bytes per call and
// bounds-check the index.
type BlockDevice interface {
	BlockCount() uint16
	ReadBlock(index uint16, buf []byte) error
	WriteBlock(index uint16, buf []byte) error
	Close() error
}

// FileDevice is a BlockDevice backed by a regular file on disk, a whole
// disk image held in a single file. Exactly one FileDevice should be open
// per image at a time.
type FileDevice struct {
	f      *os.File
	blocks uint16
}

// OpenFileDevice opens path as a block image. Its byte size must be a
// positive multiple of BlockSize and fit in a uint16 block count.
func OpenFileDevice(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("blockfs: open device: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockfs: stat device: %w", err)
	}
	size := info.Size()
	if size <= 0 || size%BlockSize != 0 {
		f.Close()
		return nil, fmt.Errorf("blockfs: device size %d is not a positive multiple of %d", size, BlockSize)
	}
	blocks := size / BlockSize
	if blocks > 0xFFFF {
		f.Close()
		return nil, fmt.Errorf("blockfs: device has %d blocks, exceeds uint16 range", blocks)
	}
	return &FileDevice{f: f, blocks: uint16(blocks)}, nil
}

// CreateFileDevice creates a new zero-filled image file of the requested
// block count, truncates any existing file at path, and opens it.
func CreateFileDevice(path string, blocks uint16) (*FileDevice, error) {
	if blocks == 0 {
		return nil, fmt.Errorf("blockfs: device must have at least one block")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC|unix.O_CLOEXEC, 0644)
	if err != nil {
		return nil, fmt.Errorf("blockfs: create device: %w", err)
	}
	if err := f.Truncate(int64(blocks) * BlockSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("blockfs: truncate device: %w", err)
	}
	return &FileDevice{f: f, blocks: blocks}, nil
}

// BlockCount returns the total number of BlockSize-byte blocks in the image.
func (d *FileDevice) BlockCount() uint16 { return d.blocks }

// ReadBlock reads exactly BlockSize bytes from the given block index into buf.
func (d *FileDevice) ReadBlock(index uint16, buf []byte) error {
	if index >= d.blocks {
		return fmt.Errorf("blockfs: block index %d out of range [0,%d)", index, d.blocks)
	}
	if len(buf) != BlockSize {
		return fmt.Errorf("blockfs: read buffer must be exactly %d bytes, got %d", BlockSize, len(buf))
	}
	_, err := d.f.ReadAt(buf, int64(index)*BlockSize)
	if err != nil {
		return fmt.Errorf("blockfs: read block %d: %w", index, err)
	}
	return nil
}

// WriteBlock writes exactly BlockSize bytes from buf to the given block index.
func (d *FileDevice) WriteBlock(index uint16, buf []byte) error {
	if index >= d.blocks {
		return fmt.Errorf("blockfs: block index %d out of range [0,%d)", index, d.blocks)
	}
	if len(buf) != BlockSize {
		return fmt.Errorf("blockfs: write buffer must be exactly %d bytes, got %d", BlockSize, len(buf))
	}
	_, err := d.f.WriteAt(buf, int64(index)*BlockSize)
	if err != nil {
		return fmt.Errorf("blockfs: write block %d: %w", index, err)
	}
	return nil
}

// Close flushes the image to stable storage and closes the underlying file.
func (d *FileDevice) Close() error {
	if err := unix.Fsync(int(d.f.Fd())); err != nil {
		d.f.Close()
		return fmt.Errorf("blockfs: fsync device: %w", err)
	}
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("blockfs: close device: %w", err)
	}
	return nil
}
