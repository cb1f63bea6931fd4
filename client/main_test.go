package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/network"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line  string
		msgID uint16
		body  interface{}
	}{
		{"watch", network.MsgTypeWatchScreen, network.WatchScreenRequest{}},
		{"watch abc", network.MsgTypeWatchScreen, network.WatchScreenRequest{ScreenID: "abc"}},
		{"claim p2", network.MsgTypeClaimSeat, network.ClaimSeatRequest{Player: models.Player2}},
		{"click 3", network.MsgTypeSlotClick, network.SlotClickRequest{Slot: 3}},
		{"nav -1", network.MsgTypeNavigate, network.NavigateRequest{Delta: -1}},
		{"random 0,2", network.MsgTypeRandomPick, network.RandomPickRequest{Available: []int{0, 2}}},
		{"team blue", network.MsgTypeSelectTeam, network.SelectTeamRequest{Team: "blue"}},
		{"join on", network.MsgTypeSetJoining, network.SetJoiningRequest{Enabled: true}},
		{"start", network.MsgTypeStartMatch, nil},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			msgID, body, err := parseCommand(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.msgID, msgID)
			assert.Equal(t, tc.body, body)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	for _, line := range []string{"", "click", "click x", "claim 0", "random 1,x", "dance"} {
		_, _, err := parseCommand(line)
		assert.Error(t, err, line)
	}
}
