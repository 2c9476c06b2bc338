package blockfs

// ioengine.go implements the block-slicing read/write path shared by
// every open file. Both operations locate the block containing the
// current offset, then process an optional partial prefix block, zero or
// more whole blocks, and an optional partial suffix block. Write
// additionally classifies its target bytes into an overwrite region (p1),
// a tail-slack region (p2) and an extension region (p3), and allocates
// new blocks for p3 on overflow.

// dataBlock converts a FAT-relative block index into a device block index.
func (fs *FS) dataBlock(i uint16) uint16 { return fs.sb.dataStart + i }

// readAt reads up to len(buf) bytes starting at the descriptor's cursor.
func (fs *FS) readAt(fd int, buf []byte) (int, error) {
	d, err := fs.openFiles.get(fd)
	if err != nil {
		return 0, err
	}
	remain := int(d.fileSize) - int(d.offset)
	count := len(buf)
	if count > remain {
		count = remain
	}
	if count == 0 {
		return 0, nil
	}

	scratch := make([]byte, BlockSize)
	bufIdx := 0
	curBlock := fs.fat.walk(d.head, int(d.offset)/BlockSize)
	startPoint := int(d.offset) % BlockSize

	if startPoint != 0 {
		if err := fs.device.ReadBlock(fs.dataBlock(curBlock), scratch); err != nil {
			return 0, ErrIOError
		}
		n := BlockSize - startPoint
		if n > count {
			n = count
		}
		copy(buf[bufIdx:], scratch[startPoint:startPoint+n])
		bufIdx += n
		count -= n
		if count == 0 {
			d.offset += uint32(bufIdx)
			return bufIdx, nil
		}
		curBlock = fs.fat.next(curBlock)
	}

	for count >= BlockSize {
		if err := fs.device.ReadBlock(fs.dataBlock(curBlock), scratch); err != nil {
			return bufIdx, ErrIOError
		}
		copy(buf[bufIdx:bufIdx+BlockSize], scratch)
		bufIdx += BlockSize
		count -= BlockSize
		curBlock = fs.fat.next(curBlock)
	}

	if count > 0 {
		if err := fs.device.ReadBlock(fs.dataBlock(curBlock), scratch); err != nil {
			return bufIdx, ErrIOError
		}
		copy(buf[bufIdx:bufIdx+count], scratch[:count])
		bufIdx += count
	}

	d.offset += uint32(bufIdx)
	return bufIdx, nil
}

// writeAt writes buf starting at the descriptor's cursor, including the
// allocate-link-write extension loop and the short-write-on-NoSpace rule.
func (fs *FS) writeAt(fd int, buf []byte) (int, error) {
	d, err := fs.openFiles.get(fd)
	if err != nil {
		return 0, err
	}
	requested := len(buf)
	if requested == 0 {
		return 0, nil
	}
	dirIdx, err := fs.root.find(d.name)
	if err != nil {
		return 0, err
	}

	fileSize := int(d.fileSize)
	offset := int(d.offset)

	p1 := fileSize - offset
	if p1 < 0 {
		p1 = 0
	}
	var p2 int
	if fileSize%BlockSize != 0 {
		p2 = BlockSize - fileSize%BlockSize
	}
	inPlace := requested
	if inPlace > p1+p2 {
		inPlace = p1 + p2
	}
	extension := requested - inPlace

	scratch := make([]byte, BlockSize)
	bufIdx := 0

	if inPlace > 0 {
		remaining := inPlace
		curBlock := fs.fat.walk(d.head, offset/BlockSize)
		startPoint := offset % BlockSize

		if startPoint != 0 {
			if err := fs.device.ReadBlock(fs.dataBlock(curBlock), scratch); err != nil {
				return 0, ErrIOError
			}
			n := BlockSize - startPoint
			if n > remaining {
				n = remaining
			}
			copy(scratch[startPoint:startPoint+n], buf[bufIdx:bufIdx+n])
			if err := fs.device.WriteBlock(fs.dataBlock(curBlock), scratch); err != nil {
				return 0, ErrIOError
			}
			bufIdx += n
			remaining -= n
			if remaining > 0 {
				curBlock = fs.fat.next(curBlock)
			}
		}

		for remaining >= BlockSize {
			copy(scratch, buf[bufIdx:bufIdx+BlockSize])
			if err := fs.device.WriteBlock(fs.dataBlock(curBlock), scratch); err != nil {
				return bufIdx, ErrIOError
			}
			bufIdx += BlockSize
			remaining -= BlockSize
			curBlock = fs.fat.next(curBlock)
		}

		if remaining > 0 {
			if err := fs.device.ReadBlock(fs.dataBlock(curBlock), scratch); err != nil {
				return bufIdx, ErrIOError
			}
			copy(scratch[:remaining], buf[bufIdx:bufIdx+remaining])
			if err := fs.device.WriteBlock(fs.dataBlock(curBlock), scratch); err != nil {
				return bufIdx, ErrIOError
			}
			bufIdx += remaining
		}
	}

	if extension > 0 {
		// tail is the last block of the existing chain, or eoc if the
		// file was empty; the first newly allocated block links after it
		// (or becomes the chain head, if the file was empty).
		wasEmpty := fileSize == 0
		var tail uint16 = eoc
		if !wasEmpty {
			tail = fs.fat.walk(d.head, (fileSize-1)/BlockSize)
		}

		for extension > 0 {
			newBlock, err := fs.fat.allocateFree()
			if err != nil {
				fs.log.Warn("write: no space left, short write", "fd", fd, "written", bufIdx, "requested", requested)
				break // NoSpace: stop, short write is success.
			}
			n := BlockSize
			if n > extension {
				n = extension
			}
			for i := range scratch {
				scratch[i] = 0
			}
			copy(scratch[:n], buf[bufIdx:bufIdx+n])
			if err := fs.device.WriteBlock(fs.dataBlock(newBlock), scratch); err != nil {
				return bufIdx, ErrIOError
			}

			fs.fat.entries[newBlock] = eoc
			if wasEmpty {
				d.head = newBlock
				fs.root.entries[dirIdx].firstIndex = newBlock
				wasEmpty = false
			} else {
				fs.fat.entries[tail] = newBlock
			}
			tail = newBlock

			bufIdx += n
			extension -= n
		}
	}

	newSize := offset + bufIdx
	if newSize > fileSize {
		d.fileSize = uint32(newSize)
		fs.root.entries[dirIdx].fileSize = uint32(newSize)
	}
	d.offset += uint32(bufIdx)
	return bufIdx, nil
}
