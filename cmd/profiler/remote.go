package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/meigma/zpack"
	zpackhttp "github.com/meigma/zpack/http"
)

// remoteArchive is an archive opened over HTTP. The header table is fetched
// once; every entry read becomes a range request against the data file.
type remoteArchive struct {
	base     string
	server   *httptest.Server
	requests atomic.Int64
	ranges   atomic.Int64
	received atomic.Int64
}

// openRemote serves ds from a local server when cfg.remoteURL is "local",
// then opens <base>/FAT_Z.BIN and <base>/BG3ZPACK.ARC through the
// shaped transport.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func openRemote(cfg config, ds *dataset) (*zpack.Reader, *remoteArchive, error) {
	if cfg.remoteURL == "" {
		return nil, nil, errors.New("remote URL is required")
	}
	ra := &remoteArchive{base: strings.TrimSuffix(cfg.remoteURL, "/")}
	if cfg.remoteURL == "local" {
		ra.server = serveDataset(ds)
		ra.base = ra.server.URL
	}

	client := &nethttp.Client{Transport: ra.transport(cfg)}
	r, err := zpackhttp.OpenArchive(
		ra.base+"/"+zpack.DefaultHeaderName,
		ra.base+"/"+zpack.DefaultDataName,
		[]zpackhttp.Option{zpackhttp.WithClient(client)},
	)
	if err != nil {
		ra.Close()
		return nil, nil, err
	}
	return r, ra, nil
}

func serveDataset(ds *dataset) *httptest.Server {
	mux := nethttp.NewServeMux()
	for name, blob := range map[string][]byte{
		zpack.DefaultHeaderName: ds.header,
		zpack.DefaultDataName:   ds.data,
	} {
		mux.HandleFunc("/"+name, func(w nethttp.ResponseWriter, r *nethttp.Request) {
			nethttp.ServeContent(w, r, name, time.Time{}, bytes.NewReader(blob))
		})
	}
	return httptest.NewServer(mux)
}

// Close stops the local server, if any. It is safe on a nil archive.
func (ra *remoteArchive) Close() {
	if ra != nil && ra.server != nil {
		ra.server.Close()
	}
}

func (ra *remoteArchive) summary() string {
	return fmt.Sprintf("remote requests=%d ranges=%d received=%s",
		ra.requests.Load(), ra.ranges.Load(), humanize.IBytes(uint64(ra.received.Load()))) //nolint:gosec // counter is never negative
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func (ra *remoteArchive) transport(cfg config) nethttp.RoundTripper {
	base := nethttp.DefaultTransport
	if t, ok := base.(*nethttp.Transport); ok {
		base = t.Clone()
	}
	var shared *link
	if cfg.httpBPS > 0 {
		shared = &link{bytesPerSecond: cfg.httpBPS}
	}
	return &shapedTransport{base: base, latency: cfg.httpLatency, link: shared, archive: ra}
}

// shapedTransport adds a fixed delay to every request and feeds response
// bodies through a shared link, so concurrent entry reads compete for the
// same bandwidth.
type shapedTransport struct {
	base    nethttp.RoundTripper
	latency time.Duration
	link    *link
	archive *remoteArchive
}

func (t *shapedTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	t.archive.requests.Add(1)
	if req.Header.Get("Range") != "" {
		t.archive.ranges.Add(1)
	}
	if t.latency > 0 {
		time.Sleep(t.latency)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		resp.Body = &meteredBody{ReadCloser: resp.Body, link: t.link, received: &t.archive.received}
	}
	return resp, nil
}

// link is a bandwidth budget shared by every body read through it.
type link struct {
	mu             sync.Mutex
	bytesPerSecond int64
	free           time.Time
}

// reserve books n bytes on the link and returns how long the caller must
// wait before they are delivered.
func (l *link) reserve(n int) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if l.free.Before(now) {
		l.free = now
	}
	l.free = l.free.Add(time.Duration(float64(n) / float64(l.bytesPerSecond) * float64(time.Second)))
	return l.free.Sub(now)
}

type meteredBody struct {
	io.ReadCloser
	link     *link
	received *atomic.Int64
}

func (b *meteredBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.received.Add(int64(n))
		if b.link != nil {
			time.Sleep(b.link.reserve(n))
		}
	}
	return n, err
}

// parseBytesPerSecond accepts humanize sizes with an optional "ps" or "/s"
// suffix: "512k", "10MiBps", "1GB/s".
func parseBytesPerSecond(value string) (int64, error) {
	text := strings.TrimSpace(value)
	for _, suffix := range []string{"/s", "ps"} {
		text = strings.TrimSuffix(text, suffix)
	}
	n, err := humanize.ParseBytes(text)
	if err != nil || n == 0 || n > math.MaxInt64 {
		return 0, fmt.Errorf("invalid bytes-per-second %q", value)
	}
	return int64(n), nil
}
