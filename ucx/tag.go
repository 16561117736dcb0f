package ucx

// Tag is the caller-chosen logical tag distinguishing message streams on top
// of the same endpoint, e.g. one per collective operation instance.
type Tag uint32

// WireTag is the single tag value the transport actually matches on. It
// combines a rank and a logical tag; the layout is fixed for the lifetime of
// a deployment since both ends must encode identically.
type WireTag uint64

// TagMask selects which wire tag bits participate in receive matching.
type TagMask uint64

const (
	// ExactTagMask matches both the rank and the logical tag bits.
	ExactTagMask TagMask = ^TagMask(0)
	// RankWildcardMask matches the logical tag bits only, so a receive
	// issued with AnyRank accepts the tag from any sender.
	RankWildcardMask TagMask = 0x00000000ffffffff
)

// EncodeTag packs a rank and a logical tag into a wire tag: the rank
// occupies the high 32 bits and the logical tag the low 32 bits. Both values
// must fit their 32-bit width; overflow is a caller contract violation and
// is not defended against here.
func EncodeTag(rank Rank, tag Tag) WireTag {
	return WireTag(uint64(uint32(rank))<<32 | uint64(tag))
}

// DecodeTag splits a wire tag back into its rank and logical tag.
func DecodeTag(wire WireTag) (Rank, Tag) {
	return Rank(uint32(wire >> 32)), Tag(uint32(wire))
}
