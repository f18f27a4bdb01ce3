package fat

import (
	"testing"

	"github.com/rstms/imgfs"
	"github.com/stretchr/testify/require"
)

func TestBootSectorRoundTrip(t *testing.T) {
	disk := imgfs.NewMemDisk(1440 * 1024)
	bs, err := superFloppyGeometry(disk, &SuperFloppyConfig{
		FATType:      FAT12,
		Label:        "ROUNDTRIP",
		OEMName:      "imgfs",
		SerialNumber: 0xcafef00d,
	})
	require.Nil(t, err)
	require.Equal(t, FAT12, bs.FATType())

	sector, err := bs.Bytes()
	require.Nil(t, err)
	require.Len(t, sector, bootSectorSize)
	_, err = disk.WriteAt(sector, 0)
	require.Nil(t, err)

	decoded, err := DecodeBootSector(disk)
	require.Nil(t, err)
	require.Equal(t, bs.OEMName, decoded.OEMName)
	require.Equal(t, bs.BytesPerSector, decoded.BytesPerSector)
	require.Equal(t, bs.SectorsPerCluster, decoded.SectorsPerCluster)
	require.Equal(t, bs.ReservedSectorCount, decoded.ReservedSectorCount)
	require.Equal(t, bs.NumFATs, decoded.NumFATs)
	require.Equal(t, bs.RootEntryCount, decoded.RootEntryCount)
	require.Equal(t, bs.TotalSectors, decoded.TotalSectors)
	require.Equal(t, bs.SectorsPerFat, decoded.SectorsPerFat)
	require.Equal(t, uint32(0xcafef00d), decoded.VolumeID)
	require.Equal(t, "ROUNDTRIP", decoded.VolumeLabel)
	require.Equal(t, FAT12, decoded.FATType())
}

func TestBootSectorRejectsMissingSignature(t *testing.T) {
	disk := imgfs.NewMemDisk(64 * 1024)
	_, err := DecodeBootSector(disk)
	require.NotNil(t, err)
}

func TestGeometryFAT16(t *testing.T) {
	disk := imgfs.NewMemDisk(8 * 1024 * 1024)
	bs, err := superFloppyGeometry(disk, &SuperFloppyConfig{FATType: FAT16})
	require.Nil(t, err)
	require.Equal(t, FAT16, bs.FATType())
	require.True(t, bs.ClusterCount() > fat12MaxClusters)

	// the FAT must be large enough to map every cluster
	fatBytes := bs.SectorsPerFat * uint32(bs.BytesPerSector)
	require.True(t, fatBytes >= (bs.ClusterCount()+2)*2)
}

func TestGeometryRejectsMismatchedType(t *testing.T) {
	// a floppy-sized device cannot hold enough clusters for FAT16
	disk := imgfs.NewMemDisk(1440 * 1024)
	err := FormatSuperFloppy(disk, &SuperFloppyConfig{FATType: FAT16})
	require.NotNil(t, err)
}

func TestClusterOffsets(t *testing.T) {
	bs := &BootSectorCommon{
		BytesPerSector:      512,
		SectorsPerCluster:   1,
		ReservedSectorCount: 1,
		NumFATs:             2,
		RootEntryCount:      512,
		TotalSectors:        2880,
		SectorsPerFat:       9,
	}
	require.Equal(t, uint32(32), bs.RootDirSectors())
	require.Equal(t, uint32(51), bs.FirstDataSector())
	require.Equal(t, int64(1*512), bs.FATOffset(0))
	require.Equal(t, int64(10*512), bs.FATOffset(1))
	require.Equal(t, int64(19*512), bs.RootDirOffset())
	require.Equal(t, int64(51*512), bs.ClusterOffset(2))
	require.Equal(t, int64(52*512), bs.ClusterOffset(3))
}
