//go:build integration

package integration

import (
	"context"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rocketbitz/ucx-go/loopback"
	ucx "github.com/rocketbitz/ucx-go/ucx"
)

// TestChannelEndToEnd drives both end-to-end exchange shapes through the
// public API: an exact-source 64-byte exchange on tag 7, then a wildcard
// drain of sends from two distinct ranks.
func TestChannelEndToEnd(t *testing.T) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	transport := loopback.New()
	worker := transport.NewWorker()
	endpoint := transport.NewEndpoint(worker)
	channel := ucx.New(transport.Table(), ucx.WithLogger(logger))

	payload := make([]byte, 64)
	for i := range payload {
		payload[i] = byte(i * 3)
	}
	sink := make([]byte, 64)

	recv := channel.Receive(worker, unsafe.Pointer(&sink[0]), 64, 7, ucx.ExactTagMask, 0)
	send := channel.Send(endpoint, unsafe.Pointer(&payload[0]), 64, 7, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, channel.WaitAllContext(ctx, worker, send, recv))
	require.Equal(t, payload, sink)

	source, ok := recv.Sender()
	require.True(t, ok)
	require.Equal(t, ucx.Rank(0), source)

	channel.Release(send)
	channel.Release(recv)

	// Wildcard drain from two ranks.
	fromA := []byte("from-rank-0")
	fromB := []byte("from-rank-2")
	sends := []*ucx.Request{
		channel.Send(endpoint, unsafe.Pointer(&fromA[0]), len(fromA), 9, 0),
		channel.Send(endpoint, unsafe.Pointer(&fromB[0]), len(fromB), 9, 2),
	}

	sinks := [][]byte{make([]byte, len(fromA)), make([]byte, len(fromB))}
	recvs := []*ucx.Request{
		channel.Receive(worker, unsafe.Pointer(&sinks[0][0]), len(sinks[0]), 9, ucx.RankWildcardMask, ucx.AnyRank),
		channel.Receive(worker, unsafe.Pointer(&sinks[1][0]), len(sinks[1]), 9, ucx.RankWildcardMask, ucx.AnyRank),
	}

	all := append(append([]*ucx.Request(nil), sends...), recvs...)
	require.NoError(t, channel.WaitAllContext(ctx, worker, all...))

	origins := map[ucx.Rank]string{}
	for i, req := range recvs {
		source, ok := req.Sender()
		require.True(t, ok, "wildcard receive %d has no sender metadata", i)
		origins[source] = string(sinks[i])
	}
	require.Equal(t, map[ucx.Rank]string{
		0: "from-rank-0",
		2: "from-rank-2",
	}, origins)

	for _, req := range all {
		channel.Release(req)
	}

	events := transport.FreeEvents()
	require.Len(t, events, 6)
	for _, ev := range events {
		require.True(t, ev.ResetFirst)
	}
}
