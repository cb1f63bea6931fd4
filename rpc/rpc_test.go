package rpc

import (
	"context"
	netrpc "net/rpc"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/fighterselect/broadcast"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/screen"
)

func startServer(t *testing.T) (*netrpc.Client, *screen.Manager, *broadcast.JoinBroadcaster) {
	t.Helper()

	joins := broadcast.NewJoinBroadcaster()
	screens := screen.NewManager(context.Background())
	t.Cleanup(screens.ShutdownAll)

	srv, err := NewServer("127.0.0.1:0", NewScreenService(screens, joins))
	require.NoError(t, err)
	go srv.Start()
	t.Cleanup(srv.Stop)

	client, err := netrpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, screens, joins
}

func TestScreenService_SetJoining(t *testing.T) {
	client, _, joins := startServer(t)

	var reply SetJoiningReply
	require.NoError(t, client.Call("ScreenService.SetJoining", &SetJoiningArgs{Enabled: true}, &reply))
	assert.True(t, reply.Joining)
	assert.True(t, joins.Joining())

	require.NoError(t, client.Call("ScreenService.SetJoining", &SetJoiningArgs{Enabled: false}, &reply))
	assert.False(t, reply.Joining)
}

func TestScreenService_GetSelection(t *testing.T) {
	client, screens, joins := startServer(t)

	s, err := screens.CreateScreen(screen.Options{
		Joins:  joins,
		Roster: models.Roster{"red": {{Name: "Ace", Avatar: "ace.png"}}},
	})
	require.NoError(t, err)

	var list ListScreensReply
	require.NoError(t, client.Call("ScreenService.ListScreens", &ListScreensArgs{}, &list))
	assert.Equal(t, []string{s.ID}, list.IDs)

	var reply GetSelectionReply
	require.NoError(t, client.Call("ScreenService.GetSelection", &GetSelectionArgs{ScreenID: s.ID}, &reply))
	assert.Equal(t, s.ID, reply.View.ID)
	assert.Len(t, reply.View.Seats, 2)

	err = client.Call("ScreenService.GetSelection", &GetSelectionArgs{ScreenID: "nope"}, &reply)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown screen"))
}
