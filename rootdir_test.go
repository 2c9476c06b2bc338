package blockfs

import "testing"

func TestRootDirCreateFindDelete(t *testing.T) {
	rd := &rootDir{}

	if err := rd.create("hello.txt"); err != nil {
		t.Fatalf("create: %v", err)
	}
	idx, err := rd.find("hello.txt")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rd.entries[idx].firstIndex != eoc {
		t.Errorf("firstIndex = %d, want eoc for a freshly created entry", rd.entries[idx].firstIndex)
	}
	if rd.entries[idx].fileSize != 0 {
		t.Errorf("fileSize = %d, want 0", rd.entries[idx].fileSize)
	}

	fat := &allocTable{entries: make([]uint16, 4), fatBlocks: 1}
	fat.entries[0] = eoc
	if err := rd.delete("hello.txt", fat); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !rd.entries[idx].free() {
		t.Fatalf("entry %d should be free after delete", idx)
	}
	if _, err := rd.find("hello.txt"); err != ErrNotFound {
		t.Fatalf("find after delete = %v, want ErrNotFound", err)
	}
}

func TestRootDirCreateDuplicateRejected(t *testing.T) {
	rd := &rootDir{}
	if err := rd.create("a"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := rd.create("a"); err != ErrExists {
		t.Fatalf("create duplicate = %v, want ErrExists", err)
	}
}

func TestRootDirCreateRejectsInvalidNames(t *testing.T) {
	rd := &rootDir{}
	if err := rd.create(""); err != ErrInvalidName {
		t.Fatalf("create(\"\") = %v, want ErrInvalidName", err)
	}
	tooLong := "0123456789abcdef" // 16 bytes, max is 15
	if err := rd.create(tooLong); err != ErrInvalidName {
		t.Fatalf("create(16-byte name) = %v, want ErrInvalidName", err)
	}
	ok := "0123456789abcde" // exactly 15 bytes
	if err := rd.create(ok); err != nil {
		t.Fatalf("create(15-byte name) = %v, want success", err)
	}
}

func TestRootDirCreateExhaustion(t *testing.T) {
	rd := &rootDir{}
	for i := 0; i < maxFiles; i++ {
		name := string(rune('a' + i%26))
		if i >= 26 {
			name += string(rune('a' + i/26))
		}
		if err := rd.create(name); err != nil {
			t.Fatalf("create(%q) at i=%d: %v", name, i, err)
		}
	}
	if err := rd.create("overflow"); err != ErrNoSlot {
		t.Fatalf("create on a full directory = %v, want ErrNoSlot", err)
	}
}

func TestRootDirDeleteFreesChain(t *testing.T) {
	rd := &rootDir{}
	if err := rd.create("f"); err != nil {
		t.Fatalf("create: %v", err)
	}
	idx, _ := rd.find("f")
	rd.entries[idx].firstIndex = 1

	fat := &allocTable{entries: make([]uint16, 4), fatBlocks: 1}
	fat.entries[0] = eoc
	fat.entries[1] = 2
	fat.entries[2] = eoc

	if err := rd.delete("f", fat); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fat.entries[1] != 0 || fat.entries[2] != 0 {
		t.Fatalf("fat entries = %v, want chain zeroed", fat.entries)
	}
}

func TestRootDirDeleteMissingReturnsNotFound(t *testing.T) {
	rd := &rootDir{}
	fat := &allocTable{entries: make([]uint16, 4), fatBlocks: 1}
	fat.entries[0] = eoc
	if err := rd.delete("nope", fat); err != ErrNotFound {
		t.Fatalf("delete(missing) = %v, want ErrNotFound", err)
	}
}

func TestRootDirLoadFlushRoundTrip(t *testing.T) {
	dev := newFormattedDevice(t, 8, 1)
	defer dev.Close()

	sb, err := loadSuperblock(dev)
	if err != nil {
		t.Fatalf("loadSuperblock: %v", err)
	}
	rd, err := loadRootDir(dev, sb)
	if err != nil {
		t.Fatalf("loadRootDir: %v", err)
	}
	if err := rd.create("persisted.txt"); err != nil {
		t.Fatalf("create: %v", err)
	}
	idx, _ := rd.find("persisted.txt")
	rd.entries[idx].fileSize = 42
	rd.entries[idx].firstIndex = 3
	if err := rd.flush(dev, sb); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded, err := loadRootDir(dev, sb)
	if err != nil {
		t.Fatalf("loadRootDir (reload): %v", err)
	}
	ridx, err := reloaded.find("persisted.txt")
	if err != nil {
		t.Fatalf("find after reload: %v", err)
	}
	if reloaded.entries[ridx].fileSize != 42 {
		t.Errorf("fileSize = %d, want 42", reloaded.entries[ridx].fileSize)
	}
	if reloaded.entries[ridx].firstIndex != 3 {
		t.Errorf("firstIndex = %d, want 3", reloaded.entries[ridx].firstIndex)
	}
}
