package blockfs

import (
	"io"
	"log/slog"
)

// FS bundles the singletons a mount lifecycle requires: the open device
// handle and the in-memory superblock, allocation table, root directory
// and open-file table. The zero value is usable and starts out unmounted.
type FS struct {
	device BlockDevice
	sb     superblock
	fat    *allocTable
	root   *rootDir

	openFiles openFileTable
	mounted   bool

	log *slog.Logger
}

// NewFS returns an unmounted filesystem instance. log may be nil, in
// which case lifecycle events are discarded.
func NewFS(log *slog.Logger) *FS {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FS{log: log}
}

// Mount validates the superblock, loads the allocation table and root
// directory into memory, and prepares the open-file table. Mount is
// refused if this instance is already mounted.
func (fs *FS) Mount(dev BlockDevice) error {
	if fs.mounted {
		return ErrAlreadyMounted
	}
	if fs.log == nil {
		fs.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sb, err := loadSuperblock(dev)
	if err != nil {
		fs.log.Error("mount: superblock validation failed", "err", err)
		return err
	}
	fat, err := loadAllocTable(dev, sb)
	if err != nil {
		fs.log.Error("mount: allocation table load failed", "err", err)
		return err
	}
	root, err := loadRootDir(dev, sb)
	if err != nil {
		fs.log.Error("mount: root directory load failed", "err", err)
		return err
	}

	fs.device = dev
	fs.sb = sb
	fs.fat = fat
	fs.root = root
	fs.openFiles = openFileTable{}
	fs.mounted = true
	fs.log.Info("mounted", "blocks", sb.blockTotal, "fatBlocks", sb.fatBlocks, "dataCount", sb.dataCount)
	return nil
}

// Unmount flushes the allocation table and root directory back through
// the device and releases resources. Refused if not mounted or if any
// descriptor is still open.
func (fs *FS) Unmount() error {
	if !fs.mounted {
		return ErrNotMounted
	}
	if fs.openFiles.anyOpen() {
		return ErrBusy
	}
	if err := fs.fat.flush(fs.device); err != nil {
		return err
	}
	if err := fs.root.flush(fs.device, fs.sb); err != nil {
		return err
	}
	if err := fs.device.Close(); err != nil {
		fs.log.Error("unmount: device close failed", "err", err)
		return ErrIOError
	}
	fs.log.Info("unmounted")
	*fs = FS{log: fs.log}
	return nil
}

// Mounted reports whether a device is currently mounted.
func (fs *FS) Mounted() bool { return fs.mounted }
