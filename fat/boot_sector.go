package fat

import (
	"encoding/binary"

	"github.com/rstms/imgfs"
)

type FATType uint8

const (
	FAT12 FATType = iota
	FAT16
	FAT32
)

const (
	bootSectorSize = 512

	// cluster count thresholds from the FAT specification; the
	// on-disk type is determined by count, not by any label
	fat12MaxClusters = 4084
	fat16MaxClusters = 65524
)

// BootSectorCommon holds the BIOS parameter block fields shared by
// all FAT variants, plus the extended fields (volume id, label, FAT32
// root cluster) needed to mount the volume.
type BootSectorCommon struct {
	OEMName             string
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectorCount uint16
	NumFATs             uint8
	RootEntryCount      uint16
	TotalSectors        uint32
	Media               uint8
	SectorsPerFat       uint32
	SectorsPerTrack     uint16
	NumHeads            uint16
	VolumeID            uint32
	VolumeLabel         string
	RootCluster         uint32
}

// DecodeBootSector reads and validates sector zero of a device.
func DecodeBootSector(device imgfs.BlockDevice) (*BootSectorCommon, error) {
	sector := make([]byte, bootSectorSize)
	if _, err := device.ReadAt(sector, 0); err != nil {
		return nil, Fatal(err)
	}
	if sector[510] != 0x55 || sector[511] != 0xAA {
		return nil, Fatalf("boot sector signature missing; not a FAT filesystem")
	}

	bs := &BootSectorCommon{
		OEMName:             trimPadding(sector[3:11]),
		BytesPerSector:      binary.LittleEndian.Uint16(sector[11:13]),
		SectorsPerCluster:   sector[13],
		ReservedSectorCount: binary.LittleEndian.Uint16(sector[14:16]),
		NumFATs:             sector[16],
		RootEntryCount:      binary.LittleEndian.Uint16(sector[17:19]),
		Media:               sector[21],
		SectorsPerTrack:     binary.LittleEndian.Uint16(sector[24:26]),
		NumHeads:            binary.LittleEndian.Uint16(sector[26:28]),
	}

	bs.TotalSectors = uint32(binary.LittleEndian.Uint16(sector[19:21]))
	if bs.TotalSectors == 0 {
		bs.TotalSectors = binary.LittleEndian.Uint32(sector[32:36])
	}

	bs.SectorsPerFat = uint32(binary.LittleEndian.Uint16(sector[22:24]))
	if bs.SectorsPerFat == 0 {
		// FAT32 stores the FAT size in the extended BPB
		bs.SectorsPerFat = binary.LittleEndian.Uint32(sector[36:40])
	}

	if bs.BytesPerSector == 0 || bs.SectorsPerCluster == 0 || bs.NumFATs == 0 {
		return nil, Fatalf("boot sector geometry invalid")
	}

	if bs.FATType() == FAT32 {
		bs.RootCluster = binary.LittleEndian.Uint32(sector[44:48])
		bs.VolumeID = binary.LittleEndian.Uint32(sector[67:71])
		bs.VolumeLabel = trimPadding(sector[71:82])
	} else {
		bs.VolumeID = binary.LittleEndian.Uint32(sector[39:43])
		bs.VolumeLabel = trimPadding(sector[43:54])
	}

	return bs, nil
}

// Bytes encodes the boot sector into a single device sector.
func (b *BootSectorCommon) Bytes() ([]byte, error) {
	if len(b.OEMName) > 8 {
		return nil, Fatalf("OEM name too long: %s", b.OEMName)
	}
	if len(b.VolumeLabel) > 11 {
		return nil, Fatalf("volume label too long: %s", b.VolumeLabel)
	}

	sector := make([]byte, bootSectorSize)
	sector[0] = 0xEB
	sector[1] = 0x3C
	sector[2] = 0x90
	copy(sector[3:11], padded(b.OEMName, 8))

	binary.LittleEndian.PutUint16(sector[11:13], b.BytesPerSector)
	sector[13] = b.SectorsPerCluster
	binary.LittleEndian.PutUint16(sector[14:16], b.ReservedSectorCount)
	sector[16] = b.NumFATs
	binary.LittleEndian.PutUint16(sector[17:19], b.RootEntryCount)
	if b.TotalSectors < 0x10000 {
		binary.LittleEndian.PutUint16(sector[19:21], uint16(b.TotalSectors))
	} else {
		binary.LittleEndian.PutUint32(sector[32:36], b.TotalSectors)
	}
	sector[21] = b.Media
	binary.LittleEndian.PutUint16(sector[24:26], b.SectorsPerTrack)
	binary.LittleEndian.PutUint16(sector[26:28], b.NumHeads)

	switch b.FATType() {
	case FAT32:
		binary.LittleEndian.PutUint32(sector[36:40], b.SectorsPerFat)
		binary.LittleEndian.PutUint32(sector[44:48], b.RootCluster)
		binary.LittleEndian.PutUint16(sector[48:50], 1)
		binary.LittleEndian.PutUint16(sector[50:52], 6)
		sector[64] = 0x80
		sector[66] = 0x29
		binary.LittleEndian.PutUint32(sector[67:71], b.VolumeID)
		copy(sector[71:82], padded(b.VolumeLabel, 11))
		copy(sector[82:90], padded("FAT32", 8))
	default:
		binary.LittleEndian.PutUint16(sector[22:24], uint16(b.SectorsPerFat))
		sector[36] = 0x80
		sector[38] = 0x29
		binary.LittleEndian.PutUint32(sector[39:43], b.VolumeID)
		copy(sector[43:54], padded(b.VolumeLabel, 11))
		if b.FATType() == FAT12 {
			copy(sector[54:62], padded("FAT12", 8))
		} else {
			copy(sector[54:62], padded("FAT16", 8))
		}
	}

	sector[510] = 0x55
	sector[511] = 0xAA
	return sector, nil
}

// FATType computes the FAT variant from the cluster count.
func (b *BootSectorCommon) FATType() FATType {
	switch count := b.ClusterCount(); {
	case count <= fat12MaxClusters:
		return FAT12
	case count <= fat16MaxClusters:
		return FAT16
	default:
		return FAT32
	}
}

func (b *BootSectorCommon) BytesPerCluster() uint32 {
	return uint32(b.SectorsPerCluster) * uint32(b.BytesPerSector)
}

// RootDirSectors returns the size of the fixed FAT12/16 root
// directory region; zero for FAT32.
func (b *BootSectorCommon) RootDirSectors() uint32 {
	bps := uint32(b.BytesPerSector)
	return (uint32(b.RootEntryCount)*directoryEntrySize + bps - 1) / bps
}

func (b *BootSectorCommon) FirstDataSector() uint32 {
	return uint32(b.ReservedSectorCount) + uint32(b.NumFATs)*b.SectorsPerFat + b.RootDirSectors()
}

func (b *BootSectorCommon) ClusterCount() uint32 {
	data := b.TotalSectors - b.FirstDataSector()
	return data / uint32(b.SectorsPerCluster)
}

// ClusterOffset returns the device byte offset of a data cluster.
// Data clusters are numbered from 2.
func (b *BootSectorCommon) ClusterOffset(cluster uint32) int64 {
	sector := b.FirstDataSector() + (cluster-2)*uint32(b.SectorsPerCluster)
	return int64(sector) * int64(b.BytesPerSector)
}

// FATOffset returns the device byte offset of FAT copy n.
func (b *BootSectorCommon) FATOffset(n int) int64 {
	sector := uint32(b.ReservedSectorCount) + uint32(n)*b.SectorsPerFat
	return int64(sector) * int64(b.BytesPerSector)
}

// RootDirOffset returns the device byte offset of the fixed FAT12/16
// root directory region.
func (b *BootSectorCommon) RootDirOffset() int64 {
	sector := uint32(b.ReservedSectorCount) + uint32(b.NumFATs)*b.SectorsPerFat
	return int64(sector) * int64(b.BytesPerSector)
}

func padded(s string, length int) []byte {
	result := make([]byte, length)
	copy(result, s)
	for i := len(s); i < length; i++ {
		result[i] = ' '
	}
	return result
}

func trimPadding(raw []byte) string {
	end := len(raw)
	for end > 0 && (raw[end-1] == ' ' || raw[end-1] == 0) {
		end--
	}
	return string(raw[:end])
}
