package fat

import (
	"io"

	"github.com/rstms/imgfs"
)

// ClusterChain exposes the data clusters reachable from startCluster
// as one sequential byte stream. Writes extend the chain through the
// FAT as needed.
type ClusterChain struct {
	device       imgfs.BlockDevice
	fat          *FAT
	startCluster uint32
	offset       int64
}

func (c *ClusterChain) Read(p []byte) (int, error) {
	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return 0, Fatal(err)
	}

	bpc := int64(c.fat.bs.BytesPerCluster())
	total := int64(len(chain)) * bpc
	if c.offset >= total {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) && c.offset < total {
		idx := c.offset / bpc
		within := c.offset % bpc
		want := int64(len(p) - n)
		if avail := bpc - within; want > avail {
			want = avail
		}
		deviceOffset := c.fat.bs.ClusterOffset(chain[idx]) + within
		if _, err := c.device.ReadAt(p[n:n+int(want)], deviceOffset); err != nil {
			return n, Fatal(err)
		}
		n += int(want)
		c.offset += want
	}
	return n, nil
}

func (c *ClusterChain) Write(p []byte) (int, error) {
	bpc := int64(c.fat.bs.BytesPerCluster())
	needed := c.offset + int64(len(p))
	clusters := (needed + bpc - 1) / bpc
	if clusters < 1 {
		clusters = 1
	}

	chain, err := c.fat.Chain(c.startCluster)
	if err != nil {
		return 0, Fatal(err)
	}
	if int64(len(chain)) < clusters {
		chain, err = c.fat.ResizeChain(c.startCluster, int(clusters))
		if err != nil {
			return 0, Fatal(err)
		}
		if err := c.fat.WriteToDevice(c.device); err != nil {
			return 0, Fatal(err)
		}
	}

	n := 0
	for n < len(p) {
		idx := c.offset / bpc
		within := c.offset % bpc
		want := int64(len(p) - n)
		if avail := bpc - within; want > avail {
			want = avail
		}
		deviceOffset := c.fat.bs.ClusterOffset(chain[idx]) + within
		if _, err := c.device.WriteAt(p[n:n+int(want)], deviceOffset); err != nil {
			return n, Fatal(err)
		}
		n += int(want)
		c.offset += want
	}
	return n, nil
}
