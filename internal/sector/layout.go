package sector

import "github.com/qwamos/pqvolume/internal/crypto"

// Body geometry, identical in both volume formats.
const (
	// PlaintextSize is the plaintext payload of one sector.
	PlaintextSize = 4096
	// StoredSize is the on-disk footprint of one sector.
	StoredSize = PlaintextSize + crypto.TagSize
)

// Count returns the number of sectors needed to hold size plaintext bytes.
func Count(size uint64) uint64 {
	return (size + PlaintextSize - 1) / PlaintextSize
}

// RoundUp rounds size up to a whole number of sectors.
func RoundUp(size uint64) uint64 {
	return Count(size) * PlaintextSize
}

// BodySize returns the stored body length for size plaintext bytes.
func BodySize(size uint64) int64 {
	return int64(Count(size)) * StoredSize
}

// CountFromStored returns how many whole stored sectors fit in storedLen
// bytes. Legacy volumes do not record their plaintext size; it is derived
// from the file length.
func CountFromStored(storedLen int64) uint64 {
	if storedLen <= 0 {
		return 0
	}
	return uint64(storedLen) / StoredSize
}

// Offset returns the file offset of the stored sector at index, given the
// offset where the volume body starts.
func Offset(bodyOffset int64, index uint64) int64 {
	return bodyOffset + int64(index)*StoredSize
}

// Extent describes how one sector overlaps a requested byte range.
type Extent struct {
	// Index is the sector index.
	Index uint64
	// Start and End bound the touched bytes within the sector's plaintext.
	Start int
	End   int
	// BufOff is where this piece lands in the request buffer.
	BufOff int
}

// Len returns the number of bytes the extent covers.
func (e Extent) Len() int {
	return e.End - e.Start
}

// IsFull reports whether the extent covers the whole sector, letting writers
// skip the read-modify-write cycle.
func (e Extent) IsFull() bool {
	return e.Start == 0 && e.End == PlaintextSize
}

// Extents splits the byte range [offset, offset+length) into per-sector
// pieces, in ascending sector order. offset must be non-negative; a
// non-positive length yields nil.
func Extents(offset int64, length int) []Extent {
	if length <= 0 {
		return nil
	}

	first := uint64(offset) / PlaintextSize
	extents := make([]Extent, 0, length/PlaintextSize+2)
	bufOff := 0

	for index := first; length > 0; index++ {
		start := 0
		if index == first {
			start = int(uint64(offset) % PlaintextSize)
		}
		n := PlaintextSize - start
		if n > length {
			n = length
		}
		extents = append(extents, Extent{Index: index, Start: start, End: start + n, BufOff: bufOff})
		bufOff += n
		length -= n
	}
	return extents
}
