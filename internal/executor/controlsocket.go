package executor

import (
	"bufio"
	"context"
	"net"
	"os"
	"sync"

	"github.com/canonical/craft-parts-go/internal/console"
	"github.com/canonical/craft-parts-go/internal/projectvars"
	"github.com/canonical/craft-parts-go/pkg/craftctlproto"
)

// controlSocket is the per-action craftctl server (spec §6 "Control
// protocol"): one Unix-domain listener, torn down when the action's
// scriptlet finishes, accepting one connection per craftctl invocation.
type controlSocket struct {
	listener net.Listener
	path     string

	partName       string
	vars           *projectvars.Vars
	defaultHandler func(ctx context.Context) error

	wg sync.WaitGroup
}

// listenControlSocket starts accepting connections at path. defaultHandler
// is invoked for a bare "default" command and should run the built-in
// handler for whatever step is currently executing.
func listenControlSocket(path, partName string, vars *projectvars.Vars, defaultHandler func(ctx context.Context) error) (*controlSocket, error) {
	_ = os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	s := &controlSocket{listener: l, path: path, partName: partName, vars: vars, defaultHandler: defaultHandler}

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

func (s *controlSocket) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *controlSocket) handle(conn net.Conn) {
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return
	}
	req, err := craftctlproto.ParseRequest(line)
	if err != nil {
		writeResponse(conn, craftctlproto.Response{OK: false, Error: err.Error()})
		return
	}

	switch req.Op {
	case craftctlproto.OpGet:
		writeResponse(conn, craftctlproto.Response{OK: true, Value: s.vars.Get(req.Name)})
	case craftctlproto.OpSet:
		if err := s.vars.Set(s.partName, req.Name, req.Value); err != nil {
			writeResponse(conn, craftctlproto.Response{OK: false, Error: err.Error()})
			return
		}
		writeResponse(conn, craftctlproto.Response{OK: true})
	case craftctlproto.OpDefault:
		if s.defaultHandler == nil {
			writeResponse(conn, craftctlproto.Response{OK: false, Error: "no default handler for this step"})
			return
		}
		if err := s.defaultHandler(context.Background()); err != nil {
			writeResponse(conn, craftctlproto.Response{OK: false, Error: err.Error()})
			return
		}
		writeResponse(conn, craftctlproto.Response{OK: true})
	default:
		writeResponse(conn, craftctlproto.Response{OK: false, Error: "unrecognized command"})
	}
}

func writeResponse(conn net.Conn, resp craftctlproto.Response) {
	if _, err := conn.Write([]byte(resp.Encode() + "\n")); err != nil {
		console.Debugf("craftctl: writing response: %v", err)
	}
}

// Close stops accepting new connections, waits for in-flight handlers, and
// removes the socket file (spec §3 "Ownership": a scoped resource released
// on every exit path).
func (s *controlSocket) Close() error {
	err := s.listener.Close()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}
