package profile_modbus

import (
	"sort"
)

// MaxRegistersPerRequest is the Modbus holding-register read ceiling.
const MaxRegistersPerRequest = 125

// DefaultMaxGap is the largest hole between two addresses that still gets
// merged into one read. Reading a few throwaway registers is cheaper than an
// extra request round-trip.
const DefaultMaxGap = 10

// RegisterRange is one contiguous read of Count registers from Start.
type RegisterRange struct {
	Start uint16
	Count uint16
}

// NewRegisterRange clamps count into [1, 125].
func NewRegisterRange(start, count uint16) RegisterRange {
	if count < 1 {
		count = 1
	}
	if count > MaxRegistersPerRequest {
		count = MaxRegistersPerRequest
	}
	return RegisterRange{Start: start, Count: count}
}

// End is the inclusive last address, saturating at the top of the address
// space.
func (r RegisterRange) End() uint16 {
	end := uint32(r.Start) + uint32(r.Count) - 1
	if end > 0xFFFF {
		return 0xFFFF
	}
	return uint16(end)
}

func (r RegisterRange) Contains(address uint16) bool {
	return address >= r.Start && address <= r.End()
}

// Offset returns the position of an address within the range, or -1.
func (r RegisterRange) Offset(address uint16) int {
	if !r.Contains(address) {
		return -1
	}
	return int(address - r.Start)
}

// Batcher packs register addresses into the minimal set of contiguous reads
// under the per-request ceiling and a merge-gap heuristic. A Batcher is a
// pure value.
type Batcher struct {
	maxPerRequest uint16
	maxGap        uint16
}

func NewBatcher(maxPerRequest, maxGap uint16) Batcher {
	if maxPerRequest < 1 || maxPerRequest > MaxRegistersPerRequest {
		maxPerRequest = MaxRegistersPerRequest
	}
	return Batcher{maxPerRequest: maxPerRequest, maxGap: maxGap}
}

func DefaultBatcher() Batcher {
	return NewBatcher(MaxRegistersPerRequest, DefaultMaxGap)
}

// Batch deduplicates and sorts the addresses, then merges neighbours. A gap
// of exactly maxGap still merges; one more splits.
func (b Batcher) Batch(addresses []uint16) []RegisterRange {
	if len(addresses) == 0 {
		return nil
	}
	seen := make(map[uint16]struct{}, len(addresses))
	unique := make([]uint16, 0, len(addresses))
	for _, a := range addresses {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		unique = append(unique, a)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	var ranges []RegisterRange
	current := RegisterRange{Start: unique[0], Count: 1}
	for _, a := range unique[1:] {
		span := uint32(a) - uint32(current.Start) + 1
		if uint32(a)-uint32(current.End()) <= uint32(b.maxGap)+1 && span <= uint32(b.maxPerRequest) {
			current.Count = uint16(span)
			continue
		}
		ranges = append(ranges, current)
		current = RegisterRange{Start: a, Count: 1}
	}
	return append(ranges, current)
}
