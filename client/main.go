package main

import (
	"bufio"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/network"
)

const usage = `commands:
  watch [screen]    attach to a screen (default screen when omitted)
  claim <player>    take a seat, e.g. "claim 1"
  release           give the seat back
  click <slot>      click a fighter slot
  nav <delta>       move the cursor
  random <i,j,...>  pick a random slot among the listed ones
  team <label>      show another team
  start | back      validate the selection or leave the screen
  join on|off       open or close joining
  ping              heartbeat`

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	packet, err := network.EncodePacket(msgID, network.Marshal(v))
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// parseCommand turns one input line into a packet.
func parseCommand(line string) (uint16, interface{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, errors.New("empty command")
	}
	arg := func() (string, error) {
		if len(fields) < 2 {
			return "", errors.Errorf("%s needs an argument", fields[0])
		}
		return fields[1], nil
	}
	number := func() (int, error) {
		s, err := arg()
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(s)
	}

	switch fields[0] {
	case "watch":
		req := network.WatchScreenRequest{}
		if len(fields) > 1 {
			req.ScreenID = fields[1]
		}
		return network.MsgTypeWatchScreen, req, nil
	case "claim":
		s, err := arg()
		if err != nil {
			return 0, nil, err
		}
		p, err := models.ParsePlayer(s)
		if err != nil {
			return 0, nil, err
		}
		return network.MsgTypeClaimSeat, network.ClaimSeatRequest{Player: p}, nil
	case "release":
		return network.MsgTypeReleaseSeat, nil, nil
	case "click":
		n, err := number()
		if err != nil {
			return 0, nil, err
		}
		return network.MsgTypeSlotClick, network.SlotClickRequest{Slot: n}, nil
	case "nav":
		n, err := number()
		if err != nil {
			return 0, nil, err
		}
		return network.MsgTypeNavigate, network.NavigateRequest{Delta: n}, nil
	case "random":
		s, err := arg()
		if err != nil {
			return 0, nil, err
		}
		var available []int
		for _, part := range strings.Split(s, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return 0, nil, err
			}
			available = append(available, n)
		}
		return network.MsgTypeRandomPick, network.RandomPickRequest{Available: available}, nil
	case "team":
		s, err := arg()
		if err != nil {
			return 0, nil, err
		}
		return network.MsgTypeSelectTeam, network.SelectTeamRequest{Team: models.Team(s)}, nil
	case "start":
		return network.MsgTypeStartMatch, nil, nil
	case "back":
		return network.MsgTypeBack, nil, nil
	case "join":
		s, err := arg()
		if err != nil {
			return 0, nil, err
		}
		return network.MsgTypeSetJoining, network.SetJoiningRequest{Enabled: s == "on"}, nil
	case "ping":
		return network.MsgTypeHeartbeat, nil, nil
	}
	return 0, nil, errors.Errorf("unknown command %q", fields[0])
}

func run(addr string) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			log.Printf("<- RECV (ID: %d): %s", packet.MsgID, string(packet.Data))
		}
	}()

	if err := send(c, network.MsgTypeWatchScreen, network.WatchScreenRequest{}); err != nil {
		return errors.Wrap(err, "watch")
	}
	log.Println("Client started.\n" + usage)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return nil
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			msgID, body, err := parseCommand(line)
			if err != nil {
				log.Println(err)
				continue
			}
			if err := send(c, msgID, body); err != nil {
				return errors.Wrap(err, "write")
			}
			log.Printf("-> SENT (ID: %d)", msgID)
		}
	}
}

func main() {
	var addr string
	cmd := &cobra.Command{
		Use:   "fighterselect-client",
		Short: "Interactive websocket client for the selection server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "server host:port")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
