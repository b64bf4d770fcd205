package sector

import (
	"reflect"
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		size uint64
		want uint64
	}{
		{"zero", 0, 0},
		{"one byte", 1, 1},
		{"one sector minus one", PlaintextSize - 1, 1},
		{"exact sector", PlaintextSize, 1},
		{"one over", PlaintextSize + 1, 2},
		{"ten megabytes", 10 * 1024 * 1024, 2560},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.size); got != tt.want {
				t.Errorf("Count(%d) = %d, want %d", tt.size, got, tt.want)
			}
		})
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		size uint64
		want uint64
	}{
		{0, 0},
		{1, PlaintextSize},
		{PlaintextSize, PlaintextSize},
		{PlaintextSize + 1, 2 * PlaintextSize},
	}

	for _, tt := range tests {
		if got := RoundUp(tt.size); got != tt.want {
			t.Errorf("RoundUp(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestBodySize(t *testing.T) {
	if got := BodySize(10 * 1024 * 1024); got != 2560*StoredSize {
		t.Errorf("BodySize(10MiB) = %d, want %d", got, 2560*StoredSize)
	}
	if got := BodySize(0); got != 0 {
		t.Errorf("BodySize(0) = %d, want 0", got)
	}
}

func TestCountFromStored(t *testing.T) {
	tests := []struct {
		stored int64
		want   uint64
	}{
		{0, 0},
		{-1, 0},
		{StoredSize - 1, 0},
		{StoredSize, 1},
		{5 * StoredSize, 5},
		{5*StoredSize + 100, 5},
	}

	for _, tt := range tests {
		if got := CountFromStored(tt.stored); got != tt.want {
			t.Errorf("CountFromStored(%d) = %d, want %d", tt.stored, got, tt.want)
		}
	}
}

func TestOffset(t *testing.T) {
	const bodyOffset = 6144

	if got := Offset(bodyOffset, 0); got != bodyOffset {
		t.Errorf("Offset(%d, 0) = %d, want %d", bodyOffset, got, bodyOffset)
	}
	if got := Offset(bodyOffset, 3); got != bodyOffset+3*StoredSize {
		t.Errorf("Offset(%d, 3) = %d, want %d", bodyOffset, got, bodyOffset+3*StoredSize)
	}
}

func TestExtents(t *testing.T) {
	tests := []struct {
		name   string
		offset int64
		length int
		want   []Extent
	}{
		{
			name:   "zero length",
			offset: 100,
			length: 0,
			want:   nil,
		},
		{
			name:   "within one sector",
			offset: 100,
			length: 50,
			want: []Extent{
				{Index: 0, Start: 100, End: 150, BufOff: 0},
			},
		},
		{
			name:   "exactly one aligned sector",
			offset: PlaintextSize,
			length: PlaintextSize,
			want: []Extent{
				{Index: 1, Start: 0, End: PlaintextSize, BufOff: 0},
			},
		},
		{
			name:   "straddles two sectors",
			offset: PlaintextSize - 10,
			length: 20,
			want: []Extent{
				{Index: 0, Start: PlaintextSize - 10, End: PlaintextSize, BufOff: 0},
				{Index: 1, Start: 0, End: 10, BufOff: 10},
			},
		},
		{
			name:   "unaligned across three sectors",
			offset: PlaintextSize + 1000,
			length: 2 * PlaintextSize,
			want: []Extent{
				{Index: 1, Start: 1000, End: PlaintextSize, BufOff: 0},
				{Index: 2, Start: 0, End: PlaintextSize, BufOff: PlaintextSize - 1000},
				{Index: 3, Start: 0, End: 1000, BufOff: 2*PlaintextSize - 1000},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extents(tt.offset, tt.length)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extents(%d, %d) = %+v, want %+v", tt.offset, tt.length, got, tt.want)
			}
		})
	}
}

func TestExtent_Helpers(t *testing.T) {
	full := Extent{Index: 2, Start: 0, End: PlaintextSize}
	if !full.IsFull() {
		t.Error("IsFull() = false for a whole-sector extent")
	}
	if full.Len() != PlaintextSize {
		t.Errorf("Len() = %d, want %d", full.Len(), PlaintextSize)
	}

	partial := Extent{Index: 2, Start: 16, End: 32}
	if partial.IsFull() {
		t.Error("IsFull() = true for a partial extent")
	}
	if partial.Len() != 16 {
		t.Errorf("Len() = %d, want 16", partial.Len())
	}
}

// The pieces of any split must tile the request exactly.
func TestExtents_Coverage(t *testing.T) {
	const offset, length = 12345, 3*PlaintextSize + 777

	extents := Extents(offset, length)

	total := 0
	next := int64(offset)
	for i, e := range extents {
		if e.BufOff != total {
			t.Fatalf("extent %d: BufOff = %d, want %d", i, e.BufOff, total)
		}
		abs := int64(e.Index)*PlaintextSize + int64(e.Start)
		if abs != next {
			t.Fatalf("extent %d: starts at byte %d, want %d", i, abs, next)
		}
		total += e.Len()
		next += int64(e.Len())
	}
	if total != length {
		t.Fatalf("extents cover %d bytes, want %d", total, length)
	}
}
