package ucx

import "testing"

func TestEncodeTagRoundTrip(t *testing.T) {
	ranks := []Rank{0, 1, 2, 15, 255, 65535, 1<<31 - 1}
	tags := []Tag{0, 1, 7, 42, 0xffff, 0xffffffff}

	for _, rank := range ranks {
		for _, tag := range tags {
			gotRank, gotTag := DecodeTag(EncodeTag(rank, tag))
			if gotRank != rank || gotTag != tag {
				t.Fatalf("roundtrip (%d, %d) = (%d, %d)", rank, tag, gotRank, gotTag)
			}
		}
	}
}

func TestEncodeTagAnyRank(t *testing.T) {
	wire := EncodeTag(AnyRank, 7)
	rank, tag := DecodeTag(wire)
	if rank != AnyRank || tag != 7 {
		t.Fatalf("DecodeTag = (%d, %d), want (%d, 7)", rank, tag, AnyRank)
	}
}

func TestRankWildcardMaskIgnoresRank(t *testing.T) {
	const tag Tag = 7
	a := EncodeTag(0, tag)
	b := EncodeTag(2, tag)
	c := EncodeTag(AnyRank, tag)

	if a == b {
		t.Fatalf("distinct ranks must produce distinct wire tags under exact matching")
	}
	if TagMask(a)&RankWildcardMask != TagMask(b)&RankWildcardMask {
		t.Fatalf("rank bits leaked into wildcard match: %#x vs %#x", a, b)
	}
	if TagMask(a)&RankWildcardMask != TagMask(c)&RankWildcardMask {
		t.Fatalf("AnyRank wildcard pattern mismatch: %#x vs %#x", a, c)
	}
	if TagMask(a)&RankWildcardMask == TagMask(EncodeTag(0, tag+1))&RankWildcardMask {
		// different logical tags must not match even under the wildcard
		t.Fatalf("unexpected wildcard match across logical tags")
	}
}

func TestExactMaskDistinguishesRanks(t *testing.T) {
	a := EncodeTag(0, 7)
	b := EncodeTag(1, 7)
	if TagMask(a)&ExactTagMask == TagMask(b)&ExactTagMask {
		t.Fatalf("exact mask must keep rank bits significant")
	}
}
