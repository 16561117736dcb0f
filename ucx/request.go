package ucx

// Request tracks one asynchronous send or receive. It is created by
// Channel.Send or Channel.Receive, mutated only by the transport's
// completion callback during a Progress call, and destroyed by exactly one
// Channel.Release after completion has been observed.
type Request struct {
	token        Token
	isSend       bool
	peer         Rank
	needsRelease bool
	released     bool
}

// completedToken backs requests whose operation finished synchronously. The
// transport returned no token, so a permanently-done stand-in keeps the wait
// path uniform across both completion paths.
type completedToken struct{}

func (completedToken) Done() bool                { return true }
func (completedToken) Reset()                    {}
func (completedToken) SenderTag() (uint64, bool) { return 0, false }

func newPendingRequest(tok Token, isSend bool, peer Rank) *Request {
	return &Request{token: tok, isSend: isSend, peer: peer, needsRelease: true}
}

func newCompletedRequest(isSend bool, peer Rank) *Request {
	return &Request{token: completedToken{}, isSend: isSend, peer: peer}
}

// Completed reports whether the transport has marked the request done.
func (r *Request) Completed() bool {
	if r == nil {
		return true
	}
	return r.token.Done()
}

// IsSend reports the request's direction.
func (r *Request) IsSend() bool {
	return r != nil && r.isSend
}

// Peer returns the rank supplied at issue time: the stamped origin for
// sends, the expected source for receives. For receives posted with AnyRank
// it does not identify the actual sender; use Sender for that.
func (r *Request) Peer() Rank {
	if r == nil {
		return AnyRank
	}
	return r.peer
}

// NeedsRelease reports whether the request owns a transport token that must
// be handed back through Channel.Release.
func (r *Request) NeedsRelease() bool {
	return r != nil && r.needsRelease
}

// Sender returns the rank of the peer that actually produced the data,
// decoded from the transport's completion metadata. Only completed receives
// carry it; ok is false otherwise. This is the sole way to learn the origin
// of a wildcard receive.
func (r *Request) Sender() (Rank, bool) {
	if r == nil || r.isSend {
		return AnyRank, false
	}
	raw, ok := r.token.SenderTag()
	if !ok {
		return AnyRank, false
	}
	rank, _ := DecodeTag(WireTag(raw))
	return rank, true
}
