package imgfs

// A FileSystem provides access to a tree hierarchy of directories
// and files stored in a disk image.
type FileSystem interface {
	// RootDir returns the single root directory.
	RootDir() (Directory, error)
	FATType() (int, error)
	OEMName() (string, error)
	VolumeID() (uint32, error)
	VolumeLabel() (string, error)
	Stats() (Stats, error)
}

// Stats reports aggregate volume usage.
type Stats struct {
	ClusterSize   uint32
	TotalClusters uint32
	FreeClusters  uint32
}
