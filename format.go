package blockfs

import "fmt"

// FormatConfig configures Format's on-disk layout choices.
type FormatConfig struct {
	// FATBlocks is the number of blocks reserved for the allocation
	// table. Must be large enough to hold one uint16 per data block.
	FATBlocks uint8
}

// Format lays out a brand-new volume on dev: a valid superblock, a
// zeroed allocation table (entry 0 pinned to EOC), and an empty root
// directory.
func Format(dev BlockDevice, cfg FormatConfig) error {
	total := dev.BlockCount()
	if cfg.FATBlocks == 0 {
		return fmt.Errorf("blockfs: FormatConfig.FATBlocks must be > 0")
	}
	if int(cfg.FATBlocks)+2 >= int(total) {
		return fmt.Errorf("blockfs: device too small for %d FAT blocks", cfg.FATBlocks)
	}
	dataCount := int(total) - int(cfg.FATBlocks) - 2
	maxAddressable := int(cfg.FATBlocks) * BlockSize / 2
	if dataCount > maxAddressable {
		return fmt.Errorf("blockfs: %d FAT blocks cannot address %d data blocks", cfg.FATBlocks, dataCount)
	}

	sb := superblock{
		blockTotal: total,
		rootIndex:  uint16(cfg.FATBlocks) + 1,
		dataStart:  uint16(cfg.FATBlocks) + 2,
		dataCount:  uint16(dataCount),
		fatBlocks:  cfg.FATBlocks,
	}
	if err := sb.persist(dev); err != nil {
		return err
	}

	fat := &allocTable{entries: make([]uint16, dataCount), fatBlocks: cfg.FATBlocks}
	fat.entries[0] = eoc
	if err := fat.flush(dev); err != nil {
		return err
	}

	rd := &rootDir{}
	if err := rd.flush(dev, sb); err != nil {
		return err
	}
	return nil
}
