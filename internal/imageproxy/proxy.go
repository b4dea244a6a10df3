// Package imageproxy re-serves third-party images from our own origin.
// Every response is a 200 with an image body: failures degrade to a
// transparent pixel so an <img> tag never renders as broken.
package imageproxy

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"path"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 10 << 20

	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptHeader = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
	cacheControl = "public, max-age=86400, immutable"
)

// hotlinkReferers maps image hosts that reject bare requests to the page origin they expect.
var hotlinkReferers = map[string]string{
	"pstatic.net":          "https://search.naver.com/",
	"naver.net":            "https://search.naver.com/",
	"daumcdn.net":          "https://www.daum.net/",
	"kakaocdn.net":         "https://www.daum.net/",
	"tistory.com":          "https://www.tistory.com/",
	"namu.la":              "https://namu.wiki/",
	"pinimg.com":           "https://www.pinterest.com/",
	"staticflickr.com":     "https://www.flickr.com/",
	"upload.wikimedia.org": "https://commons.wikimedia.org/",
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
}

// placeholder is a 1x1 fully transparent PNG shared by every failed request.
var placeholder = mustPlaceholder()

func mustPlaceholder() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		panic(fmt.Sprintf("imageproxy: encode placeholder: %v", err))
	}
	return buf.Bytes()
}

// Handler serves GET /proxy-image.
type Handler struct {
	client   *http.Client
	maxBytes int64
}

// NewHandler builds a proxy whose upstream fetches are bounded by timeout and
// never dial loopback, private or link-local addresses.
func NewHandler(timeout time.Duration) Handler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	dialer := &net.Dialer{Timeout: timeout, Control: rejectInternal}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return newHandler(&http.Client{Timeout: timeout, Transport: transport})
}

func newHandler(client *http.Client) Handler {
	return Handler{client: client, maxBytes: defaultMaxBytes}
}

var errInternalAddress = errors.New("internal address")

// sharedAddressSpace is the carrier-grade NAT range, which netip does not treat as private.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// rejectInternal runs after DNS resolution, so address is always ip:port and
// redirects are checked too.
func rejectInternal(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("dial %q: %w", address, err)
	}
	ip = ip.Unmap()
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() || sharedAddressSpace.Contains(ip) {
		return fmt.Errorf("%w: %s", errInternalAddress, ip)
	}
	return nil
}

type fetched struct {
	body        []byte
	contentType string
}

// ProxyImage handles GET /proxy-image?url=<percent-encoded URL>.
func (h Handler) ProxyImage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")

	img, err := h.fetch(r.Context(), raw)
	if err != nil {
		log.Printf("imageproxy: %q: %v", raw, err)
		img = fetched{body: placeholder, contentType: "image/png"}
	}
	writeImage(w, img)
}

func (h Handler) fetch(ctx context.Context, raw string) (fetched, error) {
	target, err := parseTarget(raw)
	if err != nil {
		return fetched{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fetched{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	if referer := refererFor(target.Hostname()); referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fetched{}, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fetched{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return fetched{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > h.maxBytes {
		return fetched{}, fmt.Errorf("body exceeds %d bytes", h.maxBytes)
	}
	if len(body) == 0 {
		return fetched{}, errors.New("empty body")
	}

	ct, err := contentType(resp.Header.Get("Content-Type"), target, body)
	if err != nil {
		return fetched{}, err
	}
	return fetched{body: body, contentType: ct}, nil
}

func parseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("missing url")
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", target.Scheme)
	}
	if target.Hostname() == "" {
		return nil, errors.New("missing host")
	}
	return target, nil
}

// refererFor matches host and its parent domains against the hotlink table.
func refererFor(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for host != "" {
		if referer, ok := hotlinkReferers[host]; ok {
			return referer
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			break
		}
		host = host[dot+1:]
	}
	return ""
}

// contentType trusts a declared image/* header, then a sniffed image type. A body
// that sniffs as something definite but not an image (an HTML hotlink page, say)
// is rejected even behind an image extension. Undetectable binary falls back to
// the URL extension and finally image/jpeg.
func contentType(header string, target *url.URL, body []byte) (string, error) {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType, nil
	}

	guessed, known := extensionTypes[strings.ToLower(path.Ext(target.Path))]
	sniffed := http.DetectContentType(body)
	switch {
	case strings.HasPrefix(sniffed, "image/"):
		return sniffed, nil
	case sniffed == "application/octet-stream" && known:
		return guessed, nil
	case sniffed == "application/octet-stream":
		return "image/jpeg", nil
	case guessed == "image/svg+xml" && strings.HasPrefix(sniffed, "text/xml"):
		return guessed, nil
	default:
		return "", fmt.Errorf("upstream body is %s, not an image", sniffed)
	}
}

func writeImage(w http.ResponseWriter, img fetched) {
	sum := sha256.Sum256(img.body)

	h := w.Header()
	h.Set("Content-Type", img.contentType)
	h.Set("Content-Length", strconv.Itoa(len(img.body)))
	h.Set("ETag", `"`+hex.EncodeToString(sum[:])+`"`)
	h.Set("Cache-Control", cacheControl)
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.body)
}
