package fat

import (
	"github.com/rstms/imgfs"
)

// FileSystem is the implementation of imgfs.FileSystem that can read
// and write a FAT filesystem.
type FileSystem struct {
	bs      *BootSectorCommon
	device  imgfs.BlockDevice
	fat     *FAT
	rootDir *DirectoryCluster
}

// ensure FileSystem implements imgfs.FileSystem
var _ imgfs.FileSystem = (*FileSystem)(nil)

// New returns a new FileSystem for accessing a previously created
// FAT filesystem.
func New(device imgfs.BlockDevice) (*FileSystem, error) {
	bs, err := DecodeBootSector(device)
	if err != nil {
		return nil, Fatal(err)
	}

	fat, err := DecodeFAT(device, bs, 0)
	if err != nil {
		return nil, Fatal(err)
	}

	var rootDir *DirectoryCluster
	if bs.FATType() == FAT32 {
		// WARNING: very experimental and incomplete
		rootDir, err = DecodeFAT32RootDirectoryCluster(device, fat)
		if err != nil {
			return nil, Fatal(err)
		}
	} else {
		rootDir, err = DecodeFAT16RootDirectoryCluster(device, bs)
		if err != nil {
			return nil, Fatal(err)
		}
	}

	result := &FileSystem{
		bs:      bs,
		device:  device,
		fat:     fat,
		rootDir: rootDir,
	}

	return result, nil
}

func (f *FileSystem) RootDir() (imgfs.Directory, error) {
	dir := &Directory{
		device:     f.device,
		dirCluster: f.rootDir,
		fat:        f.fat,
	}

	return dir, nil
}

func (f *FileSystem) FATType() (int, error) {
	switch f.bs.FATType() {
	case FAT12:
		return 12, nil
	case FAT16:
		return 16, nil
	case FAT32:
		return 32, nil
	}
	return 0, Fatalf("unknown FAT type")
}

func (f *FileSystem) OEMName() (string, error) {
	return f.bs.OEMName, nil
}

func (f *FileSystem) VolumeID() (uint32, error) {
	return f.bs.VolumeID, nil
}

func (f *FileSystem) VolumeLabel() (string, error) {
	return f.bs.VolumeLabel, nil
}

func (f *FileSystem) Stats() (imgfs.Stats, error) {
	return imgfs.Stats{
		ClusterSize:   f.bs.BytesPerCluster(),
		TotalClusters: f.bs.ClusterCount(),
		FreeClusters:  f.fat.FreeCount(),
	}, nil
}
