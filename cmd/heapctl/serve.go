package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/printer"
	"github.com/joshuapare/heapkit/internal/logger"
)

var serveAddr string

func init() {
	cmd := newServeCmd()
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "Listen address")
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host an allocator over HTTP",
		Long: `The serve command acquires an arena on start, serves allocator operations
over HTTP, and releases the arena when it receives SIGINT or SIGTERM.

Endpoints:
  POST /alloc?size=N[&policy=best]     allocate; returns handle, addr, size
  POST /zalloc?count=N&size=M          allocate zeroed
  POST /free?handle=H                  free
  POST /resize?handle=H&size=N         resize; returns the (possibly new) handle
  POST /write?handle=H[&offset=N]      copy the request body into the block
  GET  /read?handle=H[&offset=N][&len=N]  read bytes from the block
  GET  /snapshot                       every block in address order
  GET  /stats                          allocator statistics
  GET  /verify                         structural check
  POST /reset                          drop every allocation

Example:
  heapctl serve --addr 127.0.0.1:8080 --capacity 1048576
  curl -X POST 'localhost:8080/alloc?size=100&policy=best'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	a, err := openAllocator(alloc.DefaultConfig)
	if err != nil {
		return err
	}
	if err := a.Init(0); err != nil {
		_ = a.Close()
		return fmt.Errorf("failed to acquire arena: %w", err)
	}

	ln, err := net.Listen("tcp", serveAddr)
	if err != nil {
		_ = a.Close()
		return err
	}
	printInfo("Serving %d-byte arena on %s\n", a.TotalManagedBytes(), ln.Addr())
	return serve(ctx, ln, newServer(alloc.NewLocked(a)))
}

// serve runs srv on ln until ctx is done, then shuts down and releases the arena.
func serve(ctx context.Context, ln net.Listener, srv *server) error {
	hs := &fasthttp.Server{
		Handler: srv.handle,
		Name:    "heapctl",
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		serveErr = hs.Shutdown()
	case serveErr = <-errc:
	}

	if err := srv.heap.Close(); err != nil {
		return err
	}
	printInfo("Arena released\n")
	return serveErr
}

// server exposes a locked allocator over HTTP.
type server struct {
	heap *alloc.Locked
}

func newServer(l *alloc.Locked) *server {
	return &server{heap: l}
}

// handleResponse is the body of alloc, zalloc and resize responses.
type handleResponse struct {
	Handle alloc.Handle `json:"handle"`
	Addr   int          `json:"addr,omitempty"`
	Size   int          `json:"size,omitempty"`
}

func (s *server) handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	logger.Debug("request", "method", string(ctx.Method()), "path", path)

	switch {
	case ctx.IsPost():
		switch path {
		case "/alloc":
			s.alloc(ctx)
		case "/zalloc":
			s.zalloc(ctx)
		case "/free":
			s.free(ctx)
		case "/resize":
			s.resize(ctx)
		case "/write":
			s.write(ctx)
		case "/reset":
			s.heap.Reset()
			ctx.SetStatusCode(fasthttp.StatusNoContent)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	case ctx.IsGet():
		switch path {
		case "/snapshot":
			s.snapshot(ctx)
		case "/stats":
			s.stats(ctx)
		case "/verify":
			s.verify(ctx)
		case "/read":
			s.read(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	default:
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
	}
}

func (s *server) alloc(ctx *fasthttp.RequestCtx) {
	size, err := intArg(ctx, "size", -1)
	if err != nil {
		fail(ctx, err)
		return
	}
	p := alloc.FirstFit
	if raw := ctx.QueryArgs().Peek("policy"); len(raw) > 0 {
		if p, err = alloc.ParsePolicy(string(raw)); err != nil {
			fail(ctx, err)
			return
		}
	}
	h, err := s.heap.Alloc(size, p)
	if err != nil {
		fail(ctx, err)
		return
	}
	s.respondHandle(ctx, h)
}

func (s *server) zalloc(ctx *fasthttp.RequestCtx) {
	count, err := intArg(ctx, "count", -1)
	if err != nil {
		fail(ctx, err)
		return
	}
	size, err := intArg(ctx, "size", -1)
	if err != nil {
		fail(ctx, err)
		return
	}
	h, err := s.heap.AllocZeroed(count, size, alloc.FirstFit)
	if err != nil {
		fail(ctx, err)
		return
	}
	s.respondHandle(ctx, h)
}

func (s *server) free(ctx *fasthttp.RequestCtx) {
	h, err := handleArg(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	if err := s.heap.Free(h); err != nil {
		fail(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *server) resize(ctx *fasthttp.RequestCtx) {
	h, err := handleArg(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	size, err := intArg(ctx, "size", -1)
	if err != nil {
		fail(ctx, err)
		return
	}
	nh, err := s.heap.Resize(h, size)
	if err != nil {
		fail(ctx, err)
		return
	}
	s.respondHandle(ctx, nh)
}

func (s *server) write(ctx *fasthttp.RequestCtx) {
	h, err := handleArg(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	off, err := intArg(ctx, "offset", 0)
	if err != nil {
		fail(ctx, err)
		return
	}
	n, err := s.heap.Write(h, off, ctx.PostBody())
	if err != nil {
		fail(ctx, err)
		return
	}
	respond(ctx, map[string]int{"written": n})
}

func (s *server) read(ctx *fasthttp.RequestCtx) {
	h, err := handleArg(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	off, err := intArg(ctx, "offset", 0)
	if err != nil {
		fail(ctx, err)
		return
	}
	n, err := intArg(ctx, "len", 0)
	if err != nil {
		fail(ctx, err)
		return
	}
	var size int
	err = s.heap.Do(func(a *alloc.Allocator) error {
		var sizeErr error
		size, sizeErr = a.Size(h)
		return sizeErr
	})
	if err != nil {
		fail(ctx, err)
		return
	}
	if n == 0 {
		n = max(size-off, 0)
	}
	if n < 0 || off < 0 || n > size-off {
		fail(ctx, fmt.Errorf("%w: len %d at offset %d of %d-byte block", alloc.ErrInvalidSize, n, off, size))
		return
	}
	buf := make([]byte, n)
	got, err := s.heap.Read(h, off, buf)
	if err != nil {
		fail(ctx, err)
		return
	}
	ctx.SetContentType("application/octet-stream")
	ctx.SetBody(buf[:got])
}

func (s *server) snapshot(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	p := printer.New(ctx, printer.Options{Format: printer.FormatJSON})
	if err := p.PrintHeap(s.heap.Snapshot(), printer.NoHighlight); err != nil {
		fail(ctx, err)
	}
}

func (s *server) stats(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	p := printer.New(ctx, printer.Options{Format: printer.FormatJSON})
	if err := p.PrintStats(s.heap.Stats()); err != nil {
		fail(ctx, err)
	}
}

func (s *server) verify(ctx *fasthttp.RequestCtx) {
	if err := s.heap.Verify(); err != nil {
		fail(ctx, err)
		return
	}
	respond(ctx, map[string]bool{"ok": true})
}

func (s *server) respondHandle(ctx *fasthttp.RequestCtx, h alloc.Handle) {
	resp := handleResponse{Handle: h}
	if !h.IsNil() {
		// The handle was issued under the lock just released; another client
		// may already have freed it, in which case only the handle is reported.
		_ = s.heap.Do(func(a *alloc.Allocator) error {
			addr, err := a.Addr(h)
			if err != nil {
				return err
			}
			size, err := a.Size(h)
			resp.Addr, resp.Size = addr, size
			return err
		})
	}
	respond(ctx, resp)
}

// intArg parses a query argument; def is used when it is absent, and a
// negative def makes the argument required.
func intArg(ctx *fasthttp.RequestCtx, name string, def int) (int, error) {
	raw := ctx.QueryArgs().Peek(name)
	if len(raw) == 0 {
		if def < 0 {
			return 0, fmt.Errorf("%w: missing %s", errBadRequest, name)
		}
		return def, nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadRequest, name, raw)
	}
	return n, nil
}

func handleArg(ctx *fasthttp.RequestCtx) (alloc.Handle, error) {
	raw := ctx.QueryArgs().Peek("handle")
	if len(raw) == 0 {
		return alloc.Nil, fmt.Errorf("%w: missing handle", errBadRequest)
	}
	return alloc.ParseHandle(string(raw))
}

var errBadRequest = errors.New("bad request")

// statusFor maps allocator errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, alloc.ErrInvalidSize),
		errors.Is(err, alloc.ErrInvalidPolicy),
		errors.Is(err, alloc.ErrSizeOverflow):
		return fasthttp.StatusBadRequest
	case errors.Is(err, alloc.ErrInvalidHandle):
		return fasthttp.StatusNotFound
	case errors.Is(err, alloc.ErrOutOfBackingMemory):
		return fasthttp.StatusInsufficientStorage
	case errors.Is(err, alloc.ErrClosed):
		return fasthttp.StatusServiceUnavailable
	default:
		return fasthttp.StatusInternalServerError
	}
}

func fail(ctx *fasthttp.RequestCtx, err error) {
	code := statusFor(err)
	if code >= 500 {
		logger.Warn("request failed", "path", string(ctx.Path()), "error", err)
	}
	ctx.ResetBody()
	ctx.SetStatusCode(code)
	respond(ctx, map[string]string{"error": err.Error()})
}

func respond(ctx *fasthttp.RequestCtx, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}
