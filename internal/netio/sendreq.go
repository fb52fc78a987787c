package netio

import (
	"github.com/corvidnet/netmgrd/internal/pool"
)

// SendCallback is invoked once a send either completes, is canceled, or
// fails. err is only non-nil when result is OSError.
type SendCallback func(cctx *CallCtx, result Result, err error, cbarg any)

// sendRequest is the pooled, one-shot bookkeeping for a single outbound
// datagram, analogous to a uvreq: it pins the handle for the lifetime of the
// send and carries the completion callback.
type sendRequest struct {
	handle *Handle
	data   []byte
	cb     SendCallback
	cbarg  any
}

var sendReqPool = pool.New(func() *sendRequest { return &sendRequest{} })

func acquireSendRequest(h *Handle, data []byte, cb SendCallback, cbarg any) *sendRequest {
	req := sendReqPool.Get()
	req.handle = h.Clone()
	req.data = data
	req.cb = cb
	req.cbarg = cbarg
	return req
}

func (r *sendRequest) complete(cctx *CallCtx, result Result, err error) {
	cb, cbarg := r.cb, r.cbarg
	r.release()
	if cb != nil {
		cb(cctx, result, err, cbarg)
	}
}

func (r *sendRequest) release() {
	r.handle.Release()
	r.handle = nil
	r.data = nil
	r.cb = nil
	r.cbarg = nil
	sendReqPool.Put(r)
}
