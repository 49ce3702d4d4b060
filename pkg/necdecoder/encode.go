package necdecoder

// Nominal NEC pulse widths in microseconds.
const (
	LeaderMark  = 9000
	LeaderSpace = 4500
	RepeatSpace = 2250
	BitMark     = 562
	ZeroSpace   = 562
	OneSpace    = 1687
)

// FrameEdges returns the edge timestamps a receiver would capture for one NEC frame that
// starts at start.  The result always has an even number of edges.
func FrameEdges(start uint32, address, command byte) []uint32 {
	edges := make([]uint32, 0, 68)
	t := start
	add := func(d uint32) {
		t += d
		edges = append(edges, t)
	}
	edges = append(edges, t)
	add(LeaderMark)
	add(LeaderSpace)

	payload := uint32(address) | uint32(^address)<<8 | uint32(command)<<16 | uint32(^command)<<24
	for bit := 0; bit < FrameBits; bit++ {
		add(BitMark)
		if (payload>>bit)&1 == 1 {
			add(OneSpace)
		} else {
			add(ZeroSpace)
		}
	}
	// Trailing stop mark.
	add(BitMark)
	return edges
}

// RepeatEdges returns the edges of the repeat code sent while a button is held.
func RepeatEdges(start uint32) []uint32 {
	return []uint32{
		start,
		start + LeaderMark,
		start + LeaderMark + RepeatSpace,
		start + LeaderMark + RepeatSpace + BitMark,
	}
}
