package ucx

import "context"

// WaitAll busy-polls Progress on w until every request in the set reports
// completion. Completion is checked before the first Progress call, so a set
// of already-complete requests returns without touching the transport. There
// is no backoff and no timeout; use WaitAllContext to bound the wait.
func (c *Channel) WaitAll(w Worker, reqs ...*Request) {
	span := c.startWaitSpan(len(reqs))
	for {
		if outstanding(reqs) == 0 {
			c.finishWaitSpan(span, nil)
			return
		}
		c.Progress(w)
	}
}

// WaitAllContext behaves like WaitAll but gives up when ctx is cancelled or
// its deadline passes, returning ctx.Err(). The requests themselves cannot
// be cancelled: an abandoned request stays live inside the transport and
// must still be driven to completion and released eventually.
func (c *Channel) WaitAllContext(ctx context.Context, w Worker, reqs ...*Request) error {
	if ctx == nil {
		ctx = context.Background()
	}
	span := c.startWaitSpan(len(reqs))
	for {
		if outstanding(reqs) == 0 {
			c.finishWaitSpan(span, nil)
			return nil
		}
		select {
		case <-ctx.Done():
			err := ctx.Err()
			c.finishWaitSpan(span, err)
			return err
		default:
		}
		c.Progress(w)
	}
}

func outstanding(reqs []*Request) int {
	n := 0
	for _, r := range reqs {
		if r != nil && !r.Completed() {
			n++
		}
	}
	return n
}
