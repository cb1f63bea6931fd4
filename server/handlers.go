package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/network"
	"github.com/wfunc/fighterselect/screen"
	"github.com/wfunc/fighterselect/session"
)

func (s *SelectServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *SelectServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.cfg.Server.HeartbeatTimeout > 0 {
		wsConn.SetHeartbeat(s.cfg.Server.HeartbeatTimeout)
	}
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlineSessions()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.leaveScreen(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlineSessions()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *SelectServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()
	s.monitor.IncMessagesReceived()
	sess.Touch()

	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()

	var err error
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		err = sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeWatchScreen:
		err = s.handleWatchScreen(ctx, sess, packet)
	case network.MsgTypeClaimSeat:
		err = s.handleClaimSeat(ctx, sess, packet)
	case network.MsgTypeReleaseSeat:
		err = s.handleReleaseSeat(ctx, sess)
	case network.MsgTypeSlotClick:
		err = s.handleSlotClick(ctx, sess, packet)
	case network.MsgTypeNavigate:
		err = s.handleNavigate(ctx, sess, packet)
	case network.MsgTypeRandomPick:
		err = s.handleRandomPick(ctx, sess, packet)
	case network.MsgTypeSelectTeam:
		err = s.handleSelectTeam(ctx, sess, packet)
	case network.MsgTypeStartMatch:
		err = s.withScreen(sess, func(sc *screen.Screen) error { return sc.StartMatch(ctx) })
	case network.MsgTypeBack:
		err = s.withScreen(sess, func(sc *screen.Screen) error { return sc.Back(ctx) })
	case network.MsgTypeSetJoining:
		err = s.handleSetJoining(packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		return
	}

	if err != nil {
		logger.Log.Debugw("request failed", "session", sess.GetID(), "msg", packet.MsgID, "error", err)
		if sendErr := sess.Send(network.MsgTypeError, network.Marshal(network.ErrorMessage{Error: err.Error()})); sendErr != nil {
			logger.Log.Warnw("unable to report error", "session", sess.GetID(), "error", sendErr)
		}
	}
}

// watched returns the screen sess is attached to.
func (s *SelectServer) watched(sess *session.Session) (*screen.Screen, models.Player, error) {
	id, player := sess.Seat()
	if id == "" {
		return nil, models.PlayerNone, ErrNotWatching
	}
	sc, ok := s.screens.GetScreen(id)
	if !ok {
		sess.SetSeat("", models.PlayerNone)
		return nil, models.PlayerNone, errors.Wrapf(ErrNotWatching, "screen %s is gone", id)
	}
	return sc, player, nil
}

func (s *SelectServer) withScreen(sess *session.Session, fn func(sc *screen.Screen) error) error {
	sc, _, err := s.watched(sess)
	if err != nil {
		return err
	}
	return fn(sc)
}

// withSeat runs fn for the player sess is seated as.
func (s *SelectServer) withSeat(sess *session.Session, fn func(sc *screen.Screen, player models.Player) error) error {
	sc, player, err := s.watched(sess)
	if err != nil {
		return err
	}
	if player == models.PlayerNone {
		return errors.Wrapf(screen.ErrNotSeated, "session %s", sess.GetID())
	}
	return fn(sc, player)
}

func (s *SelectServer) sendSnapshot(ctx context.Context, sess *session.Session, sc *screen.Screen) error {
	v, err := sc.View(ctx)
	if err != nil {
		return err
	}
	return sess.Send(network.MsgTypeSnapshot, network.Marshal(v))
}

// leaveScreen gives up the seat sess holds, if any, and stops watching.
func (s *SelectServer) leaveScreen(sess *session.Session) {
	id, player := sess.Seat()
	sess.SetSeat("", models.PlayerNone)
	if id == "" || player == models.PlayerNone {
		return
	}
	sc, ok := s.screens.GetScreen(id)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := sc.ReleaseSeat(ctx, sess.GetID()); err != nil && !errors.Is(err, screen.ErrScreenClosed) {
		logger.Log.Warnw("unable to release seat", "session", sess.GetID(), "screen", id, "player", player, "error", err)
	}
}

func (s *SelectServer) handleWatchScreen(ctx context.Context, sess *session.Session, packet *network.Packet) error {
	var req network.WatchScreenRequest
	if err := packet.Unmarshal(&req); err != nil {
		return errors.Wrap(err, "watch screen")
	}
	if req.ScreenID == "" {
		req.ScreenID = s.defaultScreen
	}
	sc, ok := s.screens.GetScreen(req.ScreenID)
	if !ok {
		return errors.Wrapf(ErrNotWatching, "screen %s not found", req.ScreenID)
	}

	if id, _ := sess.Seat(); id != req.ScreenID {
		s.leaveScreen(sess)
		sess.SetSeat(req.ScreenID, models.PlayerNone)
	}
	logger.Log.Infof("Session %s watches screen %s", sess.GetID(), req.ScreenID)
	return s.sendSnapshot(ctx, sess, sc)
}

func (s *SelectServer) handleClaimSeat(ctx context.Context, sess *session.Session, packet *network.Packet) error {
	var req network.ClaimSeatRequest
	if err := packet.Unmarshal(&req); err != nil {
		return errors.Wrap(err, "claim seat")
	}
	sc, _, err := s.watched(sess)
	if err != nil {
		return err
	}
	if err := sc.ClaimSeat(ctx, sess.GetID(), req.Player); err != nil {
		return err
	}
	sess.SetSeat(sc.ID, req.Player)
	logger.Log.Infof("Session %s took seat %s on screen %s", sess.GetID(), req.Player, sc.ID)
	return s.sendSnapshot(ctx, sess, sc)
}

func (s *SelectServer) handleReleaseSeat(ctx context.Context, sess *session.Session) error {
	return s.withSeat(sess, func(sc *screen.Screen, player models.Player) error {
		if err := sc.ReleaseSeat(ctx, sess.GetID()); err != nil {
			return err
		}
		sess.SetSeat(sc.ID, models.PlayerNone)
		return s.sendSnapshot(ctx, sess, sc)
	})
}

func (s *SelectServer) handleSlotClick(ctx context.Context, sess *session.Session, packet *network.Packet) error {
	var req network.SlotClickRequest
	if err := packet.Unmarshal(&req); err != nil {
		return errors.Wrap(err, "slot click")
	}
	return s.withSeat(sess, func(sc *screen.Screen, player models.Player) error {
		return sc.Click(ctx, player, req.Slot)
	})
}

func (s *SelectServer) handleNavigate(ctx context.Context, sess *session.Session, packet *network.Packet) error {
	var req network.NavigateRequest
	if err := packet.Unmarshal(&req); err != nil {
		return errors.Wrap(err, "navigate")
	}
	return s.withSeat(sess, func(sc *screen.Screen, player models.Player) error {
		return sc.Navigate(ctx, player, req.Delta)
	})
}

func (s *SelectServer) handleRandomPick(ctx context.Context, sess *session.Session, packet *network.Packet) error {
	var req network.RandomPickRequest
	if err := packet.Unmarshal(&req); err != nil {
		return errors.Wrap(err, "random pick")
	}
	return s.withSeat(sess, func(sc *screen.Screen, player models.Player) error {
		idx, err := sc.RandomPick(ctx, player, req.Available)
		if err != nil {
			return err
		}
		return sess.Send(network.MsgTypeRandomPick, network.Marshal(network.RandomPickResult{Index: idx}))
	})
}

func (s *SelectServer) handleSelectTeam(ctx context.Context, sess *session.Session, packet *network.Packet) error {
	var req network.SelectTeamRequest
	if err := packet.Unmarshal(&req); err != nil {
		return errors.Wrap(err, "select team")
	}
	return s.withSeat(sess, func(sc *screen.Screen, player models.Player) error {
		return sc.SelectTeam(ctx, player, req.Team)
	})
}

func (s *SelectServer) handleSetJoining(packet *network.Packet) error {
	var req network.SetJoiningRequest
	if err := packet.Unmarshal(&req); err != nil {
		return errors.Wrap(err, "set joining")
	}
	if req.Enabled {
		s.joins.EnableJoining()
	} else {
		s.joins.DisableJoining()
	}
	return nil
}
