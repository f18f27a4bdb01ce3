package fat

import (
	"testing"

	"github.com/rstms/imgfs"
	"github.com/stretchr/testify/require"
)

func testBootSector(t *testing.T, ftype FATType) (*BootSectorCommon, *imgfs.MemDisk) {
	size := int64(1440 * 1024)
	if ftype == FAT16 {
		size = 8 * 1024 * 1024
	}
	disk := imgfs.NewMemDisk(size)
	bs, err := superFloppyGeometry(disk, &SuperFloppyConfig{FATType: ftype, Label: "T", OEMName: "t"})
	require.Nil(t, err)
	require.Equal(t, ftype, bs.FATType())
	return bs, disk
}

func TestFATPackRoundTrip(t *testing.T) {
	for _, ftype := range []FATType{FAT12, FAT16} {
		bs, disk := testBootSector(t, ftype)

		f := NewFAT(bs)
		f.entries[2] = 3
		f.entries[3] = f.eocValue()
		f.entries[4] = f.eocValue()
		f.entries[5] = 7
		f.entries[7] = f.eocValue()

		require.Nil(t, f.WriteToDevice(disk))

		decoded, err := DecodeFAT(disk, bs, 0)
		require.Nil(t, err)
		require.Equal(t, f.entries, decoded.entries)

		// both FAT copies must match
		second, err := DecodeFAT(disk, bs, 1)
		require.Nil(t, err)
		require.Equal(t, f.entries, second.entries)
	}
}

func TestFATChain(t *testing.T) {
	bs, _ := testBootSector(t, FAT12)
	f := NewFAT(bs)
	f.entries[2] = 5
	f.entries[5] = 9
	f.entries[9] = f.eocValue()

	chain, err := f.Chain(2)
	require.Nil(t, err)
	require.Equal(t, []uint32{2, 5, 9}, chain)
}

func TestFATChainDetectsCycle(t *testing.T) {
	bs, _ := testBootSector(t, FAT12)
	f := NewFAT(bs)
	f.entries[2] = 3
	f.entries[3] = 2

	_, err := f.Chain(2)
	require.NotNil(t, err)
}

func TestFATAllocChain(t *testing.T) {
	bs, _ := testBootSector(t, FAT12)
	f := NewFAT(bs)

	free := f.FreeCount()
	first, err := f.AllocChain()
	require.Nil(t, err)
	require.Equal(t, uint32(2), first)

	second, err := f.AllocChain()
	require.Nil(t, err)
	require.Equal(t, uint32(3), second)
	require.Equal(t, free-2, f.FreeCount())
}

func TestFATResizeChain(t *testing.T) {
	bs, _ := testBootSector(t, FAT12)
	f := NewFAT(bs)
	start, err := f.AllocChain()
	require.Nil(t, err)

	chain, err := f.ResizeChain(start, 4)
	require.Nil(t, err)
	require.Len(t, chain, 4)
	require.Equal(t, start, chain[0])

	// the links must walk the same chain
	walked, err := f.Chain(start)
	require.Nil(t, err)
	require.Equal(t, chain, walked)

	shrunk, err := f.ResizeChain(start, 1)
	require.Nil(t, err)
	require.Equal(t, []uint32{start}, shrunk)

	walked, err = f.Chain(start)
	require.Nil(t, err)
	require.Equal(t, []uint32{start}, walked)

	// freed clusters are reusable
	free := f.FreeCount()
	_, err = f.AllocChain()
	require.Nil(t, err)
	require.Equal(t, free-1, f.FreeCount())
}
