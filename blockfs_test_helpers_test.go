package blockfs

import (
	"path/filepath"
	"testing"
)

// newFormattedDevice creates and formats a fresh image of the given block
// count and FAT block count, returning the open device.
func newFormattedDevice(t *testing.T, blocks uint16, fatBlocks uint8) *FileDevice {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := CreateFileDevice(path, blocks)
	if err != nil {
		t.Fatalf("CreateFileDevice: %v", err)
	}
	if err := Format(dev, FormatConfig{FATBlocks: fatBlocks}); err != nil {
		t.Fatalf("Format: %v", err)
	}
	return dev
}

// mountedFS formats and mounts a fresh volume, returning the FS and the
// path it was created at (for re-mount tests).
func mountedFS(t *testing.T, blocks uint16, fatBlocks uint8) (*FS, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := CreateFileDevice(path, blocks)
	if err != nil {
		t.Fatalf("CreateFileDevice: %v", err)
	}
	if err := Format(dev, FormatConfig{FATBlocks: fatBlocks}); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dev2, err := OpenFileDevice(path)
	if err != nil {
		t.Fatalf("OpenFileDevice: %v", err)
	}
	fs := NewFS(nil)
	if err := fs.Mount(dev2); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return fs, path
}
