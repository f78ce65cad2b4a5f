package event

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketEventName is the socket.io event every build event is emitted as.
const SocketEventName = "build-event"

// SocketSink streams events to a socket.io endpoint so a dashboard can
// follow a build live.
type SocketSink struct {
	mu     sync.Mutex
	io     *socket.Socket
	closed bool
}

// SocketOptions configures the connection of a SocketSink.
type SocketOptions struct {
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// DialSocket connects to rawURL and returns a sink once the connection is
// established.
func DialSocket(ctx context.Context, rawURL string, o SocketOptions) (*SocketSink, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", rawURL)
	logger.Debug("Connecting event stream...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events URL: %w", err)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Event stream connected.", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketSink{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

func (s *SocketSink) Record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.io == nil {
		return
	}
	s.io.Emit(SocketEventName, payload(e))
}

// Close disconnects the sink. Later events are dropped.
func (s *SocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.io != nil {
		s.io.Disconnect()
	}
	return nil
}

func payload(e Event) map[string]any {
	p := map[string]any{
		"kind":    string(e.Kind),
		"name":    e.Name,
		"outcome": e.Outcome,
		"time":    e.Time.UTC().Format(time.RFC3339Nano),
	}
	if e.Detail != "" {
		p["detail"] = e.Detail
	}
	if e.Kind == KindTool {
		p["exit_code"] = e.ExitCode
	}
	if e.Duration > 0 {
		p["duration_ms"] = e.Duration.Milliseconds()
	}
	return p
}
