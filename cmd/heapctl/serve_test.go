package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/backing"
)

func newTestServer(t *testing.T, limit int) *server {
	t.Helper()
	src, err := backing.NewHeap(limit)
	require.NoError(t, err)
	a := alloc.New(src, &alloc.VisualConfig)
	require.NoError(t, a.Init(0))
	l := alloc.NewLocked(a)
	t.Cleanup(func() { _ = l.Close() })
	return newServer(l)
}

// do runs one request through the handler without a listener.
func do(s *server, method, uri string, body []byte) *fasthttp.RequestCtx {
	ctx := new(fasthttp.RequestCtx)
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	ctx.Request.SetBody(body)
	s.handle(ctx)
	return ctx
}

func decodeHandle(t *testing.T, ctx *fasthttp.RequestCtx) handleResponse {
	t.Helper()
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var resp handleResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return resp
}

func TestServe_AllocWriteReadFree(t *testing.T) {
	s := newTestServer(t, 1<<20)

	resp := decodeHandle(t, do(s, "POST", "/alloc?size=100&policy=best", nil))
	require.False(t, resp.Handle.IsNil())
	assert.Equal(t, 32, resp.Addr)
	assert.Equal(t, 104, resp.Size)
	h := resp.Handle.String()

	ctx := do(s, "POST", "/write?handle="+h+"&offset=4", []byte("hello"))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"written":5}`, string(ctx.Response.Body()))

	ctx = do(s, "GET", "/read?handle="+h+"&offset=4&len=5", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "hello", string(ctx.Response.Body()))

	ctx = do(s, "GET", "/read?handle="+h, nil)
	assert.Len(t, ctx.Response.Body(), 104, "len defaults to the rest of the block")

	resized := decodeHandle(t, do(s, "POST", "/resize?handle="+h+"&size=48", nil))
	assert.Equal(t, resp.Handle, resized.Handle, "shrinking stays in place")
	assert.Equal(t, 48, resized.Size)

	ctx = do(s, "POST", "/free?handle="+h, nil)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())

	ctx = do(s, "POST", "/free?handle="+h, nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "invalid handle")
}

func TestServe_ZallocAndSnapshot(t *testing.T) {
	s := newTestServer(t, 1<<20)

	resp := decodeHandle(t, do(s, "POST", "/zalloc?count=5&size=4", nil))
	assert.Equal(t, 24, resp.Size)

	ctx := do(s, "GET", "/snapshot", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{
		"blocks": [
			{"addr": 32, "size": 24, "is_free": false},
			{"addr": 88, "size": 552, "is_free": true}
		],
		"total_blocks": 2,
		"total_bytes": 576
	}`, string(ctx.Response.Body()))

	ctx = do(s, "GET", "/stats", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var st alloc.Stats
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &st))
	assert.Equal(t, 1, st.UsedBlocks)
	assert.Equal(t, 640, st.ManagedBytes)

	ctx = do(s, "GET", "/verify", nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = do(s, "POST", "/reset", nil)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	ctx = do(s, "GET", "/snapshot", nil)
	assert.JSONEq(t, `{"blocks":[],"total_blocks":0,"total_bytes":0}`, string(ctx.Response.Body()))
}

func TestServe_Errors(t *testing.T) {
	s := newTestServer(t, 1280)

	tests := []struct {
		method, uri string
		want        int
	}{
		{"POST", "/alloc", fasthttp.StatusBadRequest},
		{"POST", "/alloc?size=abc", fasthttp.StatusBadRequest},
		{"POST", "/alloc?size=-1", fasthttp.StatusBadRequest},
		{"POST", "/alloc?size=64&policy=next", fasthttp.StatusBadRequest},
		{"POST", "/alloc?size=100000", fasthttp.StatusInsufficientStorage},
		{"POST", "/free", fasthttp.StatusBadRequest},
		{"POST", "/free?handle=zz", fasthttp.StatusNotFound},
		{"POST", "/resize?handle=0-9-1&size=8", fasthttp.StatusNotFound},
		{"POST", "/nope", fasthttp.StatusNotFound},
		{"GET", "/alloc", fasthttp.StatusNotFound},
		{"PUT", "/alloc?size=8", fasthttp.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		ctx := do(s, tt.method, tt.uri, nil)
		assert.Equal(t, tt.want, ctx.Response.StatusCode(), "%s %s", tt.method, tt.uri)
	}

	// Nothing above may have changed the heap.
	ctx := do(s, "GET", "/verify", nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestServe_ReadOutOfRange(t *testing.T) {
	s := newTestServer(t, 1<<20)
	resp := decodeHandle(t, do(s, "POST", "/alloc?size=16", nil))
	h := resp.Handle.String()

	for _, q := range []string{
		"&len=9223372036854775807",
		"&len=17",
		"&offset=8&len=9",
		"&offset=17",
		"&offset=-1&len=4",
	} {
		ctx := do(s, "GET", "/read?handle="+h+q, nil)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), q)
		assert.Contains(t, string(ctx.Response.Body()), "invalid size", q)
	}

	ctx := do(s, "GET", "/read?handle="+h+"&offset=8&len=8", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Len(t, ctx.Response.Body(), 8)

	ctx = do(s, "GET", "/read?handle="+h+"&offset=16", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Empty(t, ctx.Response.Body())
}

func TestServe_Lifecycle(t *testing.T) {
	s := newTestServer(t, 1<<20)
	ln := fasthttputil.NewInmemoryListener()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, s) }()

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod("POST")
	req.SetRequestURI("http://heap/alloc?size=64")
	require.NoError(t, client.Do(req, resp))
	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	// The arena is released on shutdown.
	require.ErrorIs(t, s.heap.Verify(), alloc.ErrClosed)
}
