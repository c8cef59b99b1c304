package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
)

// RemoteError is an error returned by the remote handler. The peer was
// reachable; the call itself failed.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc error: %s: %s", e.Method, e.Message)
}

// Options bounds dialing and each call. Zero values fall back to defaults.
type Options struct {
	DialTimeout time.Duration
	CallTimeout time.Duration
}

const (
	defaultDialTimeout = 3 * time.Second
	defaultCallTimeout = 5 * time.Second
)

type wireResponse struct {
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Client is a lightweight JSON-over-TCP RPC client. It dials lazily and
// redials after any transport failure, so one Client survives peer restarts.
type Client struct {
	addr    string
	opts    Options
	mu      sync.Mutex
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	nextID  atomic.Int64
}

// NewClient returns a client for addr without connecting.
func NewClient(addr string, opts Options) *Client {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	return &Client{addr: addr, opts: opts}
}

// Dial connects to an RPC server at the given address.
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	c := NewClient(addr, opts)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Addr returns the remote address.
func (c *Client) Addr() string {
	return c.addr
}

// Call invokes the named RPC method with params and decodes the response
// into result. Transport failures wrap errors.ErrCommunication; handler
// failures are returned as *RemoteError. Call is safe for concurrent use.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshaling params: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return c.commErr(method, err)
	}
	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return err
		}
	}

	deadline := time.Now().Add(c.opts.CallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.reset()
		return c.commErr(method, err)
	}

	id := strconv.FormatInt(c.nextID.Add(1), 10)
	if err := c.encoder.Encode(Request{Method: method, ID: id, Params: raw}); err != nil {
		c.reset()
		return c.commErr(method, fmt.Errorf("sending request: %w", err))
	}

	var resp wireResponse
	if err := c.decoder.Decode(&resp); err != nil {
		c.reset()
		return c.commErr(method, fmt.Errorf("reading response: %w", err))
	}
	if resp.ID != id {
		c.reset()
		return c.commErr(method, fmt.Errorf("response id %q does not match request id %q", resp.ID, id))
	}
	_ = c.conn.SetDeadline(time.Time{})

	if resp.Error != "" {
		return &RemoteError{Method: method, Message: resp.Error}
	}
	if result != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, result); err != nil {
			return fmt.Errorf("unmarshaling %s result: %w", method, err)
		}
	}
	return nil
}

// Close closes the underlying TCP connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %v", apperrors.ErrCommunication, c.addr, err)
	}
	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	return nil
}

func (c *Client) reset() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.encoder = nil
	c.decoder = nil
}

func (c *Client) commErr(method string, err error) error {
	return fmt.Errorf("%w: %s at %s: %v", apperrors.ErrCommunication, method, c.addr, err)
}
