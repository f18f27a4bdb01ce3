package fat

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/rstms/imgfs"
)

const (
	directoryEntrySize = 32

	entryFree        = 0xE5
	entryEndMark     = 0x00
	lfnCharsPerEntry = 13
)

// DirectoryCluster is the decoded form of one directory: either the
// fixed FAT12/16 root region or a normal cluster chain.
type DirectoryCluster struct {
	entries      []*DirectoryClusterEntry
	fat16Root    bool
	startCluster uint32
}

// DirectoryClusterEntry is a single 32-byte slot within a directory
// cluster. Long-name slots carry a 13-character chunk in longName and
// leave the 8.3 fields empty.
type DirectoryClusterEntry struct {
	name       string
	ext        string
	attr       imgfs.DirectoryAttr
	cluster    uint32
	createTime time.Time
	accessTime time.Time
	writeTime  time.Time
	fileSize   uint32
	deleted    bool

	longName    string
	lfnSeq      byte
	lfnChecksum byte
}

func (e *DirectoryClusterEntry) IsLong() bool {
	return (e.attr & imgfs.AttrLongName) == imgfs.AttrLongName
}

func (e *DirectoryClusterEntry) IsVolumeId() bool {
	return !e.IsLong() && (e.attr&imgfs.AttrVolumeId) == imgfs.AttrVolumeId
}

// Bytes encodes the slot into its on-disk 32-byte form.
func (e *DirectoryClusterEntry) Bytes() []byte {
	slot := make([]byte, directoryEntrySize)

	if e.IsLong() {
		slot[0] = e.lfnSeq
		slot[11] = byte(imgfs.AttrLongName)
		slot[13] = e.lfnChecksum
		chars := utf16.Encode([]rune(e.longName))
		for i := 0; i < lfnCharsPerEntry; i++ {
			var c uint16
			switch {
			case i < len(chars):
				c = chars[i]
			case i == len(chars):
				c = 0x0000
			default:
				c = 0xFFFF
			}
			binary.LittleEndian.PutUint16(slot[lfnCharOffset(i):], c)
		}
		return slot
	}

	copy(slot[0:8], padded(e.name, 8))
	copy(slot[8:11], padded(e.ext, 3))
	if e.deleted {
		slot[0] = entryFree
	}
	slot[11] = byte(e.attr)
	slot[13] = fatTimeTenths(e.createTime)
	binary.LittleEndian.PutUint16(slot[14:16], fatTime(e.createTime))
	binary.LittleEndian.PutUint16(slot[16:18], fatDate(e.createTime))
	binary.LittleEndian.PutUint16(slot[18:20], fatDate(e.accessTime))
	binary.LittleEndian.PutUint16(slot[20:22], uint16(e.cluster>>16))
	binary.LittleEndian.PutUint16(slot[22:24], fatTime(e.writeTime))
	binary.LittleEndian.PutUint16(slot[24:26], fatDate(e.writeTime))
	binary.LittleEndian.PutUint16(slot[26:28], uint16(e.cluster&0xFFFF))
	binary.LittleEndian.PutUint32(slot[28:32], e.fileSize)
	return slot
}

func decodeClusterEntry(slot []byte) *DirectoryClusterEntry {
	attr := imgfs.DirectoryAttr(slot[11])

	if (attr & imgfs.AttrLongName) == imgfs.AttrLongName {
		chars := make([]uint16, 0, lfnCharsPerEntry)
		for i := 0; i < lfnCharsPerEntry; i++ {
			c := binary.LittleEndian.Uint16(slot[lfnCharOffset(i):])
			if c == 0x0000 || c == 0xFFFF {
				break
			}
			chars = append(chars, c)
		}
		return &DirectoryClusterEntry{
			attr:        attr,
			longName:    string(utf16.Decode(chars)),
			lfnSeq:      slot[0],
			lfnChecksum: slot[13],
			deleted:     slot[0] == entryFree,
		}
	}

	entry := &DirectoryClusterEntry{
		name:       trimPadding(slot[0:8]),
		ext:        trimPadding(slot[8:11]),
		attr:       attr,
		createTime: decodeFatTimestamp(slot[16:18], slot[14:16], slot[13]),
		accessTime: decodeFatTimestamp(slot[18:20], nil, 0),
		writeTime:  decodeFatTimestamp(slot[24:26], slot[22:24], 0),
		cluster:    uint32(binary.LittleEndian.Uint16(slot[20:22]))<<16 | uint32(binary.LittleEndian.Uint16(slot[26:28])),
		fileSize:   binary.LittleEndian.Uint32(slot[28:32]),
		deleted:    slot[0] == entryFree,
	}
	if entry.deleted {
		entry.name = trimPadding(slot[1:8])
	}
	// dot entries are stored space-padded like any other name
	return entry
}

// lfnCharOffset maps a character index to its byte offset within a
// long-name slot; the 13 characters are split across three runs.
func lfnCharOffset(i int) int {
	switch {
	case i < 5:
		return 1 + i*2
	case i < 11:
		return 14 + (i-5)*2
	default:
		return 28 + (i-11)*2
	}
}

// NewDirectoryCluster returns a fresh directory cluster containing
// the dot and dot-dot entries. parent is zero when the parent is the
// root directory.
func NewDirectoryCluster(start, parent uint32, t time.Time) *DirectoryCluster {
	dot := &DirectoryClusterEntry{
		name:       ".",
		attr:       imgfs.AttrDirectory,
		cluster:    start,
		createTime: t,
		accessTime: t,
		writeTime:  t,
	}
	dotdot := &DirectoryClusterEntry{
		name:       "..",
		attr:       imgfs.AttrDirectory,
		cluster:    parent,
		createTime: t,
		accessTime: t,
		writeTime:  t,
	}
	return &DirectoryCluster{
		entries:      []*DirectoryClusterEntry{dot, dotdot},
		startCluster: start,
	}
}

// NewRootDirectoryCluster returns the root directory of a freshly
// formatted volume, holding only the volume label entry. start is
// zero for the fixed FAT12/16 root region.
func NewRootDirectoryCluster(start uint32, label string, t time.Time) *DirectoryCluster {
	padded11 := string(padded(label, 11))
	labelEntry := &DirectoryClusterEntry{
		name:       strings.TrimRight(padded11[0:8], " "),
		ext:        strings.TrimRight(padded11[8:11], " "),
		attr:       imgfs.AttrVolumeId,
		createTime: t,
		accessTime: t,
		writeTime:  t,
	}
	return &DirectoryCluster{
		entries:      []*DirectoryClusterEntry{labelEntry},
		fat16Root:    start == 0,
		startCluster: start,
	}
}

// DecodeFAT16RootDirectoryCluster reads the fixed root region of a
// FAT12 or FAT16 volume.
func DecodeFAT16RootDirectoryCluster(device imgfs.BlockDevice, bs *BootSectorCommon) (*DirectoryCluster, error) {
	data := make([]byte, uint32(bs.RootEntryCount)*directoryEntrySize)
	if _, err := device.ReadAt(data, bs.RootDirOffset()); err != nil {
		return nil, Fatal(err)
	}
	c := &DirectoryCluster{fat16Root: true}
	c.entries = decodeClusterEntries(data)
	return c, nil
}

// DecodeFAT32RootDirectoryCluster reads the root directory chain of a
// FAT32 volume.
func DecodeFAT32RootDirectoryCluster(device imgfs.BlockDevice, fat *FAT) (*DirectoryCluster, error) {
	return DecodeDirectoryCluster(fat.bs.RootCluster, device, fat)
}

// DecodeDirectoryCluster reads the directory stored in the chain
// starting at cluster.
func DecodeDirectoryCluster(cluster uint32, device imgfs.BlockDevice, fat *FAT) (*DirectoryCluster, error) {
	chain, err := fat.Chain(cluster)
	if err != nil {
		return nil, Fatal(err)
	}

	bpc := fat.bs.BytesPerCluster()
	data := make([]byte, uint32(len(chain))*bpc)
	for i, c := range chain {
		if _, err := device.ReadAt(data[uint32(i)*bpc:uint32(i+1)*bpc], fat.bs.ClusterOffset(c)); err != nil {
			return nil, Fatal(err)
		}
	}

	result := &DirectoryCluster{startCluster: cluster}
	result.entries = decodeClusterEntries(data)
	return result, nil
}

func decodeClusterEntries(data []byte) []*DirectoryClusterEntry {
	entries := make([]*DirectoryClusterEntry, 0, len(data)/directoryEntrySize/2)
	for off := 0; off+directoryEntrySize <= len(data); off += directoryEntrySize {
		slot := data[off : off+directoryEntrySize]
		if slot[0] == entryEndMark {
			break
		}
		entries = append(entries, decodeClusterEntry(slot))
	}
	return entries
}

// Bytes encodes all slots plus the end marker.
func (c *DirectoryCluster) Bytes() []byte {
	data := make([]byte, (len(c.entries)+1)*directoryEntrySize)
	for i, entry := range c.entries {
		copy(data[i*directoryEntrySize:], entry.Bytes())
	}
	return data
}

// WriteToDevice encodes the directory and writes it back, growing the
// cluster chain when the entries no longer fit. The fixed FAT12/16
// root region cannot grow.
func (c *DirectoryCluster) WriteToDevice(device imgfs.BlockDevice, fat *FAT) error {
	data := c.Bytes()

	if c.fat16Root {
		capacity := int(fat.bs.RootEntryCount) * directoryEntrySize
		if len(data)-directoryEntrySize > capacity {
			return Fatalf("root directory full")
		}
		if len(data) > capacity {
			data = data[:capacity]
		}
		if _, err := device.WriteAt(data, fat.bs.RootDirOffset()); err != nil {
			return Fatal(err)
		}
		return nil
	}

	bpc := fat.bs.BytesPerCluster()
	clusters := (uint32(len(data)) + bpc - 1) / bpc
	chain, err := fat.ResizeChain(c.startCluster, int(clusters))
	if err != nil {
		return Fatal(err)
	}
	if err := fat.WriteToDevice(device); err != nil {
		return Fatal(err)
	}

	padded := make([]byte, uint32(len(chain))*bpc)
	copy(padded, data)
	for i, cluster := range chain {
		block := padded[uint32(i)*bpc : uint32(i+1)*bpc]
		if _, err := device.WriteAt(block, fat.bs.ClusterOffset(cluster)); err != nil {
			return Fatal(err)
		}
	}
	return nil
}

// NewLongDirectoryClusterEntry builds the VFAT long-name slots for
// name, in on-disk order: the final chunk of the name comes first,
// flagged as the last logical entry.
func NewLongDirectoryClusterEntry(name, shortName string) ([]*DirectoryClusterEntry, error) {
	runes := []rune(name)
	chunkCount := (len(runes) + lfnCharsPerEntry - 1) / lfnCharsPerEntry
	if chunkCount == 0 || chunkCount > 20 {
		return nil, Fatalf("name length unsupported: %s", name)
	}

	sum := lfnChecksum(shortName)
	entries := make([]*DirectoryClusterEntry, 0, chunkCount)
	for i := chunkCount - 1; i >= 0; i-- {
		end := (i + 1) * lfnCharsPerEntry
		if end > len(runes) {
			end = len(runes)
		}
		entry := &DirectoryClusterEntry{
			attr:        imgfs.AttrLongName,
			longName:    string(runes[i*lfnCharsPerEntry : end]),
			lfnSeq:      byte(i + 1),
			lfnChecksum: sum,
		}
		entries = append(entries, entry)
	}
	entries[0].lfnSeq |= 0x40
	return entries, nil
}

// lfnChecksum computes the rotate-and-add checksum of the padded 8.3
// name that ties long-name slots to their short entry.
func lfnChecksum(shortName string) byte {
	parts := strings.SplitN(shortName, ".", 2)
	raw := padded(parts[0], 8)
	if len(parts) == 2 {
		raw = append(raw, padded(parts[1], 3)...)
	} else {
		raw = append(raw, padded("", 3)...)
	}

	var sum byte
	for _, b := range raw {
		sum = ((sum & 1) << 7) + (sum >> 1) + b
	}
	return sum
}

const shortNameChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_^$~!#%&-{}@`'()"

// generateShortName derives a unique 8.3 alias for name, appending a
// ~N suffix when the name does not already fit.
func generateShortName(name string, used []string) (string, error) {
	name = strings.ToUpper(name)

	var ext string
	if dot := strings.LastIndex(name, "."); dot > 0 {
		ext = cleanShortChars(name[dot+1:])
		if len(ext) > 3 {
			ext = ext[:3]
		}
		name = name[:dot]
	}

	base := cleanShortChars(name)
	if base == "" {
		base = "_"
	}

	simple := base
	if len(simple) <= 8 {
		result := simple
		if ext != "" {
			result = fmt.Sprintf("%s.%s", simple, ext)
		}
		if !shortNameUsed(result, used) {
			return result, nil
		}
	}

	for n := 1; n < 100000; n++ {
		suffix := fmt.Sprintf("~%d", n)
		prefix := base
		if len(prefix) > 8-len(suffix) {
			prefix = prefix[:8-len(suffix)]
		}
		result := prefix + suffix
		if ext != "" {
			result = fmt.Sprintf("%s.%s", result, ext)
		}
		if !shortNameUsed(result, used) {
			return result, nil
		}
	}

	return "", Fatalf("cannot generate short name for: %s", name)
}

func cleanShortChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(shortNameChars, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shortNameUsed(name string, used []string) bool {
	for _, u := range used {
		if strings.EqualFold(strings.TrimSuffix(u, "."), strings.TrimSuffix(name, ".")) {
			return true
		}
	}
	return false
}

func fatDate(t time.Time) uint16 {
	if t.IsZero() || t.Year() < 1980 {
		return 0
	}
	return uint16(t.Year()-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

func fatTime(t time.Time) uint16 {
	if t.IsZero() {
		return 0
	}
	return uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
}

// fatTimeTenths encodes the create-time sub-2-second remainder in
// centiseconds (0-199).
func fatTimeTenths(t time.Time) byte {
	if t.IsZero() {
		return 0
	}
	return byte((t.Second()%2)*100 + t.Nanosecond()/10000000)
}

func decodeFatTimestamp(dateRaw, timeRaw []byte, tenths byte) time.Time {
	date := binary.LittleEndian.Uint16(dateRaw)
	if date == 0 {
		return time.Time{}
	}

	year := int(date>>9) + 1980
	month := time.Month((date >> 5) & 0x0F)
	day := int(date & 0x1F)

	var hour, minute, sec, nsec int
	if timeRaw != nil {
		t := binary.LittleEndian.Uint16(timeRaw)
		hour = int(t >> 11)
		minute = int((t >> 5) & 0x3F)
		sec = int(t&0x1F) * 2
	}
	sec += int(tenths) / 100
	nsec = (int(tenths) % 100) * 10000000

	return time.Date(year, month, day, hour, minute, sec, nsec, time.Local)
}
