// Package craftclient is a thin client library for the per-action
// Unix-domain control socket: it dials the socket, sends one request, and
// returns the parsed response (spec §6 "Control protocol"). Each call is a
// single connect/send/receive/close rather than a long-lived connection.
// The cmd/craftctl lifecycle CLI in this module does not use it and has no
// get/set/default subcommands.
package craftclient

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/canonical/craft-parts-go/pkg/craftctlproto"
)

// Client dials a control socket for a single request/response round trip.
type Client struct {
	SocketPath string
}

// New creates a Client bound to socketPath (normally read from the
// CRAFT_CONTROL_SOCKET environment variable the executor exports).
func New(socketPath string) *Client {
	return &Client{SocketPath: socketPath}
}

// Do sends req and returns the server's parsed response.
func (c *Client) Do(ctx context.Context, req craftctlproto.Request) (craftctlproto.Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.SocketPath)
	if err != nil {
		return craftctlproto.Response{}, fmt.Errorf("craftctl: dial %s: %w", c.SocketPath, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(req.Encode() + "\n")); err != nil {
		return craftctlproto.Response{}, fmt.Errorf("craftctl: write request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return craftctlproto.Response{}, fmt.Errorf("craftctl: read response: %w", err)
	}
	return craftctlproto.ParseResponse(line), nil
}

// Default invokes the built-in handler for the current step.
func (c *Client) Default(ctx context.Context) (craftctlproto.Response, error) {
	return c.Do(ctx, craftctlproto.Request{Op: craftctlproto.OpDefault})
}

// Get reads a project variable.
func (c *Client) Get(ctx context.Context, name string) (craftctlproto.Response, error) {
	return c.Do(ctx, craftctlproto.Request{Op: craftctlproto.OpGet, Name: name})
}

// Set assigns a project variable.
func (c *Client) Set(ctx context.Context, name, value string) (craftctlproto.Response, error) {
	return c.Do(ctx, craftctlproto.Request{Op: craftctlproto.OpSet, Name: name, Value: value})
}
