package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/broadcast"
	"github.com/wfunc/fighterselect/config"
	"github.com/wfunc/fighterselect/display"
	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/monitor"
	"github.com/wfunc/fighterselect/persistence"
	fsrpc "github.com/wfunc/fighterselect/rpc"
	"github.com/wfunc/fighterselect/screen"
	"github.com/wfunc/fighterselect/services"
	"github.com/wfunc/fighterselect/session"
	"github.com/wfunc/fighterselect/timer"
)

const requestTimeout = 5 * time.Second

var ErrNotWatching = errors.New("session is not watching a screen")

// SelectServer hosts selection screens over websocket, HTTP and RPC.
type SelectServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	screens        *screen.Manager
	sessionManager *session.Manager
	roster         *services.RosterService
	joins          *broadcast.JoinBroadcaster
	monitor        *monitor.Monitor
	catalog        *display.Catalog
	rpcServer      *fsrpc.Server
	timers         *timer.TimerManager
	httpServer     *http.Server
	defaultScreen  string
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewSelectServer loads the roster from store, opens the default screen and, when an
// RPC address is configured, binds the RPC listener.
func NewSelectServer(cfg *config.Config, store persistence.RosterStore) (*SelectServer, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SelectServer{
		cfg:            cfg,
		sessionManager: session.NewManager(),
		roster:         services.NewRosterService(store),
		joins:          broadcast.NewJoinBroadcaster(),
		monitor:        monitor.NewMonitor(cfg.Metrics.Namespace),
		timers:         timer.NewTimerManager(0),
		ctx:            ctx,
		cancel:         cancel,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	s.screens = screen.NewManager(ctx)

	loadCtx, loadCancel := context.WithTimeout(ctx, 10*time.Second)
	defer loadCancel()
	if _, err := s.roster.LoadRosters(loadCtx); err != nil {
		s.fail()
		return nil, err
	}

	catalog, err := display.NewCatalog(cfg.Screen.Language, cfg.Catalog())
	if err != nil {
		s.fail()
		return nil, err
	}
	s.catalog = catalog

	sc, err := s.createScreen()
	if err != nil {
		s.fail()
		return nil, err
	}
	s.defaultScreen = sc.ID

	if cfg.Server.RPCAddress != "" {
		// 初始化RPC服务器
		s.rpcServer, err = fsrpc.NewServer(cfg.Server.RPCAddress, fsrpc.NewScreenService(s.screens, s.joins))
		if err != nil {
			s.fail()
			return nil, err
		}
	}

	if cfg.Server.IdleTimeout > 0 && cfg.Server.ReapInterval > 0 {
		s.timers.AddTimer(cfg.Server.ReapInterval, cfg.Server.ReapInterval, s.reapIdleSessions)
	}
	s.monitor.PublishExpvar()
	return s, nil
}

func (s *SelectServer) fail() {
	s.timers.Stop()
	s.screens.ShutdownAll()
	s.cancel()
}

// screenOptions builds the options of a new screen from the configuration and the loaded roster.
func (s *SelectServer) screenOptions(id string) (screen.Options, error) {
	colors, err := s.cfg.Screen.Colors()
	if err != nil {
		return screen.Options{}, err
	}
	return screen.Options{
		Players:             s.cfg.Screen.Players,
		FrameColors:         colors,
		UnknownAvatar:       s.cfg.Screen.UnknownAvatar,
		UnknownLabel:        s.cfg.Screen.UnknownLabel,
		SelectFirstOnJoin:   s.cfg.Screen.SelectFirstOnJoin,
		RequireAllConfirmed: s.cfg.Screen.RequireAllConfirmed,
		Roster:              s.roster.Roster(),
		Teams:               s.roster.Teams(),
		Fighters:            s.roster,
		Joins:               s.joins,
		Metrics:             s.monitor,
		Broadcaster:         broadcast.NewSessionBroadcaster(s.sessionManager, id),
		Catalog:             s.catalog,
	}, nil
}

func (s *SelectServer) createScreen() (*screen.Screen, error) {
	id := uuid.NewString()
	opts, err := s.screenOptions(id)
	if err != nil {
		return nil, err
	}
	sc, err := s.screens.Create(id, opts)
	if err != nil {
		return nil, err
	}
	s.monitor.SetActiveScreens(s.screens.Count())
	logger.Log.Infow("screen created", "screen", id)
	return sc, nil
}

func (s *SelectServer) removeScreen(id string) bool {
	if _, ok := s.screens.GetScreen(id); !ok {
		return false
	}
	s.screens.RemoveScreen(id)
	s.monitor.SetActiveScreens(s.screens.Count())
	return true
}

// Joins exposes the process-wide joining switch.
func (s *SelectServer) Joins() *broadcast.JoinBroadcaster { return s.joins }

// DefaultScreen is the id of the screen created at startup.
func (s *SelectServer) DefaultScreen() string { return s.defaultScreen }

func (s *SelectServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.HTTPAddress,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Log.Infof("Selection server listening on %s", s.cfg.Server.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *SelectServer) Shutdown(ctx context.Context) error {
	s.cancel()
	s.timers.Stop()
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	s.screens.ShutdownAll()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// reapIdleSessions closes clients that stopped talking. Their read loop releases the seat.
func (s *SelectServer) reapIdleSessions() {
	for _, sess := range s.sessionManager.Idle(time.Now(), s.cfg.Server.IdleTimeout) {
		logger.Log.Infow("closing idle session", "session", sess.GetID())
		if err := sess.Close(); err != nil {
			logger.Log.Debugw("close idle session", "session", sess.GetID(), "error", err)
		}
	}
}
