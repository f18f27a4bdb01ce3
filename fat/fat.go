package fat

import (
	"encoding/binary"

	"github.com/rstms/imgfs"
)

const (
	fat32EntryMask = 0x0FFFFFFF

	freeCluster = 0
)

// FAT is an in-memory copy of a file allocation table. Mutations are
// buffered and written back with WriteToDevice.
type FAT struct {
	bs      *BootSectorCommon
	entries []uint32
}

// NewFAT returns an empty table for a freshly formatted volume, with
// the media descriptor and end-of-chain markers in the two reserved
// entries.
func NewFAT(bs *BootSectorCommon) *FAT {
	f := &FAT{
		bs:      bs,
		entries: make([]uint32, bs.ClusterCount()+2),
	}
	f.entries[0] = uint32(bs.Media) | (f.eocValue() &^ 0xFF)
	f.entries[1] = f.eocValue()
	return f
}

// DecodeFAT reads FAT copy n from the device.
func DecodeFAT(device imgfs.BlockDevice, bs *BootSectorCommon, n int) (*FAT, error) {
	if n < 0 || n >= int(bs.NumFATs) {
		return nil, Fatalf("FAT index out of range: %d", n)
	}

	data := make([]byte, bs.SectorsPerFat*uint32(bs.BytesPerSector))
	if _, err := device.ReadAt(data, bs.FATOffset(n)); err != nil {
		return nil, Fatal(err)
	}

	f := &FAT{
		bs:      bs,
		entries: make([]uint32, bs.ClusterCount()+2),
	}

	for i := range f.entries {
		switch bs.FATType() {
		case FAT12:
			o := i * 3 / 2
			pair := binary.LittleEndian.Uint16(data[o : o+2])
			if i%2 == 0 {
				f.entries[i] = uint32(pair & 0x0FFF)
			} else {
				f.entries[i] = uint32(pair >> 4)
			}
		case FAT16:
			f.entries[i] = uint32(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		case FAT32:
			f.entries[i] = binary.LittleEndian.Uint32(data[i*4:i*4+4]) & fat32EntryMask
		}
	}

	return f, nil
}

// WriteToDevice encodes the table and writes every FAT copy.
func (f *FAT) WriteToDevice(device imgfs.BlockDevice) error {
	data := make([]byte, f.bs.SectorsPerFat*uint32(f.bs.BytesPerSector))
	for i, entry := range f.entries {
		switch f.bs.FATType() {
		case FAT12:
			o := i * 3 / 2
			if i%2 == 0 {
				data[o] = byte(entry)
				data[o+1] = (data[o+1] &^ 0x0F) | byte(entry>>8)&0x0F
			} else {
				data[o] = (data[o] & 0x0F) | byte(entry&0x0F)<<4
				data[o+1] = byte(entry >> 4)
			}
		case FAT16:
			binary.LittleEndian.PutUint16(data[i*2:i*2+2], uint16(entry))
		case FAT32:
			binary.LittleEndian.PutUint32(data[i*4:i*4+4], entry&fat32EntryMask)
		}
	}

	for n := 0; n < int(f.bs.NumFATs); n++ {
		if _, err := device.WriteAt(data, f.bs.FATOffset(n)); err != nil {
			return Fatal(err)
		}
	}
	return nil
}

// AllocChain claims the first free cluster and marks it as a
// single-cluster chain. The table is not written to the device.
func (f *FAT) AllocChain() (uint32, error) {
	for i := 2; i < len(f.entries); i++ {
		if f.entries[i] == freeCluster {
			f.entries[i] = f.eocValue()
			return uint32(i), nil
		}
	}
	return 0, Fatalf("filesystem full")
}

// Chain returns the ordered cluster list starting at start.
func (f *FAT) Chain(start uint32) ([]uint32, error) {
	chain := make([]uint32, 0, 2)
	cluster := start
	for {
		if cluster < 2 || int(cluster) >= len(f.entries) {
			return nil, Fatalf("cluster chain out of range: %d", cluster)
		}
		chain = append(chain, cluster)
		if len(chain) > len(f.entries) {
			return nil, Fatalf("cluster chain cycle at %d", start)
		}
		next := f.entries[cluster]
		if f.isEOC(next) {
			return chain, nil
		}
		cluster = next
	}
}

// ResizeChain grows or shrinks the chain starting at start to exactly
// length clusters, allocating or freeing as needed. The table is not
// written to the device.
func (f *FAT) ResizeChain(start uint32, length int) ([]uint32, error) {
	if length < 1 {
		return nil, Fatalf("chain length must be positive")
	}

	chain, err := f.Chain(start)
	if err != nil {
		return nil, Fatal(err)
	}

	for len(chain) < length {
		next, err := f.AllocChain()
		if err != nil {
			return nil, Fatal(err)
		}
		f.entries[chain[len(chain)-1]] = next
		chain = append(chain, next)
	}

	if len(chain) > length {
		for _, cluster := range chain[length:] {
			f.entries[cluster] = freeCluster
		}
		chain = chain[:length]
		f.entries[chain[length-1]] = f.eocValue()
	}

	return chain, nil
}

// FreeCount returns the number of unallocated data clusters.
func (f *FAT) FreeCount() uint32 {
	var count uint32
	for i := 2; i < len(f.entries); i++ {
		if f.entries[i] == freeCluster {
			count++
		}
	}
	return count
}

func (f *FAT) eocValue() uint32 {
	switch f.bs.FATType() {
	case FAT12:
		return 0xFFF
	case FAT16:
		return 0xFFFF
	default:
		return 0x0FFFFFFF
	}
}

func (f *FAT) isEOC(entry uint32) bool {
	switch f.bs.FATType() {
	case FAT12:
		return entry >= 0xFF8
	case FAT16:
		return entry >= 0xFFF8
	default:
		return entry >= 0x0FFFFFF8
	}
}
