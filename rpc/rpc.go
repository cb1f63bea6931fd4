package rpc

import (
	"context"
	"net"
	"net/rpc"
	"time"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/broadcast"
	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/screen"
)

var ErrUnknownScreen = errors.New("unknown screen")

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers every receiver on a private rpc.Server.
func NewServer(addr string, receivers ...interface{}) (*Server, error) {
	srv := rpc.NewServer()
	for _, r := range receivers {
		if err := srv.Register(r); err != nil {
			return nil, errors.Wrap(err, "register rpc service")
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      srv,
	}, nil
}

// Addr is the address actually bound.
func (s *Server) Addr() string { return s.address }

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// ScreenService exposes screen administration over RPC.
type ScreenService struct {
	screens *screen.Manager
	joins   *broadcast.JoinBroadcaster
	timeout time.Duration
}

func NewScreenService(screens *screen.Manager, joins *broadcast.JoinBroadcaster) *ScreenService {
	return &ScreenService{screens: screens, joins: joins, timeout: 5 * time.Second}
}

// RPC methods must follow the net/rpc signature: exported method, exported
// arguments, second argument is a pointer, return type is error.

type SetJoiningArgs struct {
	Enabled bool
}

type SetJoiningReply struct {
	Joining bool
}

// SetJoining flips the process-wide joining broadcast.
func (ss *ScreenService) SetJoining(args *SetJoiningArgs, reply *SetJoiningReply) error {
	if args.Enabled {
		ss.joins.EnableJoining()
	} else {
		ss.joins.DisableJoining()
	}
	reply.Joining = ss.joins.Joining()
	return nil
}

// ListScreensArgs limits the answer to the Limit oldest screens; zero lists all.
type ListScreensArgs struct {
	Limit int
}

type ListScreensReply struct {
	IDs []string
}

func (ss *ScreenService) ListScreens(args *ListScreensArgs, reply *ListScreensReply) error {
	for _, s := range ss.screens.Screens() {
		if args.Limit > 0 && len(reply.IDs) == args.Limit {
			break
		}
		reply.IDs = append(reply.IDs, s.ID)
	}
	return nil
}

type GetSelectionArgs struct {
	ScreenID string
}

type GetSelectionReply struct {
	View screen.View
}

// GetSelection returns the current view of one screen.
func (ss *ScreenService) GetSelection(args *GetSelectionArgs, reply *GetSelectionReply) error {
	s, ok := ss.screens.GetScreen(args.ScreenID)
	if !ok {
		return errors.Wrapf(ErrUnknownScreen, "%q", args.ScreenID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ss.timeout)
	defer cancel()

	v, err := s.View(ctx)
	if err != nil {
		return err
	}
	reply.View = v
	return nil
}
