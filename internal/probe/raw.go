package probe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPort = 80
	UserAgent   = "Chrome/50.0.2661.102" // some sites reject requests without one
	chunkSize   = 4096
)

var completionMarkers = [][]byte{[]byte("</html>"), []byte("</HTML>")}

// DialFunc matches (*net.Dialer).DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// RawProber speaks just enough HTTP/1.1 over a plain TCP socket to time
// the handshake and the first complete HTML document.
type RawProber struct {
	Logger *zap.Logger
	Port   int
	Dial   DialFunc // nil uses a net.Dialer
}

func NewRawProber(logger *zap.Logger) *RawProber {
	return &RawProber{Logger: logger, Port: DefaultPort}
}

// BuildRequest returns the literal request sent to target.
func BuildRequest(target string) string {
	return "GET / HTTP/1.1\r\nHost: " + target + "\r\nUser-Agent: " + UserAgent + "\r\n\r\n"
}

// Probe connects to target, sends BuildRequest(target) and reads 4 KiB
// chunks until one of them contains a closing html tag. timeout bounds
// each blocking step separately: connect, write, and every read.
//
// The marker is only searched for inside the chunk just read, so a tag
// split across two reads is not seen. A peer that closes before sending
// the marker yields a partial outcome with HTTPSuccess=false.
func (p *RawProber) Probe(ctx context.Context, txnID, target string, timeout time.Duration) Result {
	log := p.Logger.With(zap.String("target", target), zap.String("txn_id", txnID))
	log.Debug("probe_started")
	defer log.Debug("probe_finished")

	req := BuildRequest(target)
	res := Result{TransactionID: txnID, Target: target}
	res.Outcome.RequestText = strings.ReplaceAll(req, "\r\n", `\r\n`)

	dial := p.Dial
	if dial == nil {
		d := &net.Dialer{Timeout: timeout}
		dial = d.DialContext
	}
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}

	log.Info("probe_connecting")
	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, timeout)
	conn, err := dial(dctx, "tcp", net.JoinHostPort(target, strconv.Itoa(port)))
	cancel()
	if err != nil {
		return p.fail(log, res, err)
	}
	defer conn.Close()
	res.Outcome.TCPConnected = true
	res.Outcome.TCPTime = time.Since(start)
	log.Info("probe_connected", zap.Duration("tcp_time", res.Outcome.TCPTime))

	start = time.Now()
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, req); err != nil {
		return p.fail(log, res, err)
	}

	log.Debug("probe_reading")
	buf := make([]byte, chunkSize)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			res.Outcome.ResponseSize += n
			res.Outcome.Body = append(res.Outcome.Body, chunk...)
			if hasCompletionMarker(chunk) {
				res.Outcome.HTTPTime = time.Since(start)
				res.Outcome.HTTPSuccess = true
				break
			}
		}
		if errors.Is(err, io.EOF) {
			log.Info("probe_closed_without_marker", zap.Int("pagesize", res.Outcome.ResponseSize))
			break
		}
		if err != nil {
			return p.fail(log, res, err)
		}
	}

	res.Outcome.TotalTime = res.Outcome.TCPTime + res.Outcome.HTTPTime
	log.Debug("probe_completed",
		zap.Bool("http_success", res.Outcome.HTTPSuccess),
		zap.Int("pagesize", res.Outcome.ResponseSize),
		zap.Duration("total_time", res.Outcome.TotalTime),
	)
	return res
}

func (p *RawProber) fail(log *zap.Logger, res Result, err error) Result {
	res.Failure = Classify(err)
	res.Err = err
	res.Outcome.TotalTime = res.Outcome.TCPTime + res.Outcome.HTTPTime

	switch res.Failure {
	case FailureNameResolution:
		log.Warn("probe_lookup_failed", zap.Error(err))
	case FailureTimeout:
		log.Warn("probe_timeout", zap.String("next", "continue within next iteration"), zap.Error(err))
	case FailureSocketCreation:
		log.Warn("probe_socket_create_failed", zap.Error(err))
	default:
		log.Warn("probe_socket_error", zap.Error(err))
	}
	return res
}

// Classify maps a dial/read/write error onto a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureNameResolution
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) && sysErr.Syscall == "socket" {
		return FailureSocketCreation
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureSocket
}

func hasCompletionMarker(chunk []byte) bool {
	for _, m := range completionMarkers {
		if bytes.Contains(chunk, m) {
			return true
		}
	}
	return false
}
