package blockfs

import "io"

const maxOpenFiles = 32

// fileDescriptor is one slot of the in-memory open-file table. A
// zero-value fileDescriptor with used==false is a free slot.
type fileDescriptor struct {
	used     bool
	name     string
	fileSize uint32
	offset   uint32
	head     uint16 // chain head block index, eoc if empty
}

// openFileTable is the fixed-capacity (32) descriptor table.
type openFileTable struct {
	slots [maxOpenFiles]fileDescriptor
}

// allocate finds the first free descriptor slot and populates it from the
// named directory entry. The descriptor caches fileSize/head at open time,
// not a live reference, so a concurrent change to the directory entry is
// not reflected until the next open.
func (t *openFileTable) allocate(rd *rootDir, name string) (int, error) {
	idx, err := rd.find(name)
	if err != nil {
		return -1, err
	}
	for fd := range t.slots {
		if !t.slots[fd].used {
			t.slots[fd] = fileDescriptor{
				used:     true,
				name:     name,
				fileSize: rd.entries[idx].fileSize,
				offset:   0,
				head:     rd.entries[idx].firstIndex,
			}
			return fd, nil
		}
	}
	return -1, ErrTooManyOpen
}

func validFd(fd int) bool { return fd >= 0 && fd < maxOpenFiles }

func (t *openFileTable) get(fd int) (*fileDescriptor, error) {
	if !validFd(fd) {
		return nil, ErrBadFd
	}
	if !t.slots[fd].used {
		return nil, ErrBadFd
	}
	return &t.slots[fd], nil
}

func (t *openFileTable) close(fd int) error {
	d, err := t.get(fd)
	if err != nil {
		return err
	}
	*d = fileDescriptor{}
	return nil
}

func (t *openFileTable) anyOpen() bool {
	for i := range t.slots {
		if t.slots[i].used {
			return true
		}
	}
	return false
}

// File is a handle to an open descriptor. It implements io.Reader,
// io.Writer, io.Seeker and io.Closer over the underlying read/write engine.
type File struct {
	fs *FS
	fd int
}

var (
	_ io.Reader = (*File)(nil)
	_ io.Writer = (*File)(nil)
	_ io.Seeker = (*File)(nil)
	_ io.Closer = (*File)(nil)
)

// Fd returns the descriptor's integer handle in [0, 32).
func (f *File) Fd() int { return f.fd }

// Read implements io.Reader over the file's current cursor.
func (f *File) Read(buf []byte) (int, error) {
	n, err := f.fs.readAt(f.fd, buf)
	if err != nil {
		return n, err
	}
	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer over the file's current cursor.
func (f *File) Write(buf []byte) (int, error) {
	n, err := f.fs.writeAt(f.fd, buf)
	if err != nil {
		return n, err
	}
	if n < len(buf) {
		return n, ErrNoSpace
	}
	return n, nil
}

// Seek implements io.Seeker. There are no sparse files or negative
// offsets: the target must land within [0, fileSize].
func (f *File) Seek(offset int64, whence int) (int64, error) {
	d, err := f.fs.openFiles.get(f.fd)
	if err != nil {
		return 0, err
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(d.offset) + offset
	case io.SeekEnd:
		target = int64(d.fileSize) + offset
	default:
		return 0, ErrInvalidOffset
	}
	if target < 0 || target > int64(d.fileSize) {
		return 0, ErrInvalidOffset
	}
	d.offset = uint32(target)
	return target, nil
}

// Close releases the descriptor back to the open-file table.
func (f *File) Close() error {
	return f.fs.openFiles.close(f.fd)
}

// Stat returns the file's cached size in bytes.
func (f *File) Stat() (int64, error) {
	d, err := f.fs.openFiles.get(f.fd)
	if err != nil {
		return 0, err
	}
	return int64(d.fileSize), nil
}
