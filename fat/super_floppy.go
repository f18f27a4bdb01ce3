package fat

import (
	"time"

	"github.com/rstms/imgfs"
)

// SuperFloppyConfig selects the parameters of a new unpartitioned
// FAT volume occupying a whole device.
type SuperFloppyConfig struct {
	FATType      FATType
	Label        string
	OEMName      string
	SerialNumber uint32
}

// FormatSuperFloppy writes a fresh FAT filesystem across the entire
// device: boot sector, FAT copies, and an empty root directory
// holding only the volume label entry.
func FormatSuperFloppy(device imgfs.BlockDevice, config *SuperFloppyConfig) error {
	bs, err := superFloppyGeometry(device, config)
	if err != nil {
		return Fatal(err)
	}
	if bs.FATType() != config.FATType {
		return Fatalf("device size unsuitable for requested FAT type")
	}

	sector, err := bs.Bytes()
	if err != nil {
		return Fatal(err)
	}
	if _, err := device.WriteAt(sector, 0); err != nil {
		return Fatal(err)
	}

	fat := NewFAT(bs)
	now := time.Now()

	var root *DirectoryCluster
	if config.FATType == FAT32 {
		rootCluster, err := fat.AllocChain()
		if err != nil {
			return Fatal(err)
		}
		bs.RootCluster = rootCluster
		// rewrite the boot sector with the root cluster filled in
		sector, err = bs.Bytes()
		if err != nil {
			return Fatal(err)
		}
		if _, err := device.WriteAt(sector, 0); err != nil {
			return Fatal(err)
		}
		root = NewRootDirectoryCluster(rootCluster, config.Label, now)
	} else {
		root = NewRootDirectoryCluster(0, config.Label, now)
		// zero the fixed root region in case the device held a
		// previous filesystem
		region := make([]byte, uint32(bs.RootEntryCount)*directoryEntrySize)
		if _, err := device.WriteAt(region, bs.RootDirOffset()); err != nil {
			return Fatal(err)
		}
	}

	if err := fat.WriteToDevice(device); err != nil {
		return Fatal(err)
	}
	if err := root.WriteToDevice(device, fat); err != nil {
		return Fatal(err)
	}
	return nil
}

func superFloppyGeometry(device imgfs.BlockDevice, config *SuperFloppyConfig) (*BootSectorCommon, error) {
	bps := uint32(device.SectorSize())
	totalSectors := uint32(device.Len() / int64(bps))
	if totalSectors < 64 {
		return nil, Fatalf("device too small to format")
	}

	bs := &BootSectorCommon{
		OEMName:         config.OEMName,
		BytesPerSector:  uint16(bps),
		NumFATs:         2,
		TotalSectors:    totalSectors,
		Media:           0xF8,
		SectorsPerTrack: 32,
		NumHeads:        64,
		VolumeID:        config.SerialNumber,
		VolumeLabel:     config.Label,
	}

	var maxClusters uint32
	switch config.FATType {
	case FAT12:
		bs.ReservedSectorCount = 1
		bs.RootEntryCount = 512
		maxClusters = fat12MaxClusters
	case FAT16:
		bs.ReservedSectorCount = 1
		bs.RootEntryCount = 512
		maxClusters = fat16MaxClusters
	case FAT32:
		bs.ReservedSectorCount = 32
		bs.RootEntryCount = 0
		maxClusters = 0x0FFFFFF4
	default:
		return nil, Fatalf("FAT type not 12, 16, or 32")
	}

	// Grow the cluster size until the cluster count fits the type.
	bs.SectorsPerCluster = 1
	for {
		clusters := totalSectors / uint32(bs.SectorsPerCluster)
		if clusters <= maxClusters {
			break
		}
		if bs.SectorsPerCluster >= 128 {
			return nil, Fatalf("device too large for FAT type")
		}
		bs.SectorsPerCluster *= 2
	}

	// The FAT size and the cluster count depend on each other;
	// growing the FAT only shrinks the data region, so iterating
	// until the FAT fits converges.
	bs.SectorsPerFat = 1
	for {
		if bs.FirstDataSector() >= totalSectors {
			return nil, Fatalf("device too small to format")
		}
		clusters := bs.ClusterCount()
		var fatBytes uint32
		switch config.FATType {
		case FAT12:
			fatBytes = ((clusters + 2)*3 + 1) / 2
		case FAT16:
			fatBytes = (clusters + 2) * 2
		case FAT32:
			fatBytes = (clusters + 2) * 4
		}
		needed := (fatBytes + bps - 1) / bps
		if needed <= bs.SectorsPerFat {
			break
		}
		bs.SectorsPerFat = needed
	}

	if bs.ClusterCount() < 1 {
		return nil, Fatalf("device too small to format")
	}
	return bs, nil
}
