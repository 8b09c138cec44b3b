package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankkit/adapters/memory"
	"rankkit/api/httpapi"
	"rankkit/boards"
	"rankkit/engine"
	"rankkit/realtime"
	"rankkit/season"
	sdk "rankkit/sdk/go"
)

func newServer(t *testing.T) string {
	t.Helper()
	hub := realtime.NewHub()
	reg := boards.New(
		boards.WithStore(memory.New()),
		boards.WithDispatchMode(engine.DispatchSync),
		boards.WithRealtime(hub),
		boards.WithSeasonProvider(season.NewManual("s1")),
	)
	t.Cleanup(reg.Close)
	_, err := reg.Register(boards.Definition{Name: "arena", MaxNum: 2})
	require.NoError(t, err)
	_, err = reg.Register(boards.Definition{Name: "weekly", MaxNum: 5, Seasonal: true})
	require.NoError(t, err)
	srv := httptest.NewServer(httpapi.NewMux(reg, hub, httpapi.Options{PathPrefix: "/api", APIKeys: []string{"secret"}}))
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", server, "--api-key", "secret"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetRankAndRange(t *testing.T) {
	server := newServer(t)

	for _, args := range [][]string{
		{"-b", "arena", "set", "alice", "30", `{"name":"Alice"}`},
		{"-b", "arena", "set", "bob", "20", "plain"},
		{"-b", "arena", "set", "carol", "10", "x"},
	} {
		out, err := run(t, server, args...)
		require.NoError(t, err)
		assert.Contains(t, out, "set successfully")
	}

	out, err := run(t, server, "-b", "arena", "rank", "carol")
	require.NoError(t, err)
	var rank sdk.Rank
	require.NoError(t, json.Unmarshal([]byte(out), &rank))
	assert.EqualValues(t, -1, rank.Rank)

	out, err = run(t, server, "-b", "arena", "range", "0", "9")
	require.NoError(t, err)
	var board sdk.Board
	require.NoError(t, json.Unmarshal([]byte(out), &board))
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "alice", board.Entries[0].ID)
	assert.Equal(t, "plain", board.Entries[1].Payload)

	out, err = run(t, server, "-b", "arena", "get", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, `"Alice"`)

	_, err = run(t, server, "-b", "arena", "get", "carol")
	assert.Error(t, err)

	_, err = run(t, server, "-b", "arena", "set", "dave", "lots", "x")
	assert.Error(t, err)
}

func TestSaveLoadClean(t *testing.T) {
	server := newServer(t)

	_, err := run(t, server, "-b", "arena", "load")
	assert.Error(t, err)

	_, err = run(t, server, "-b", "arena", "set", "alice", "3", "p")
	require.NoError(t, err)
	_, err = run(t, server, "-b", "arena", "save")
	require.NoError(t, err)
	out, err := run(t, server, "-b", "arena", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "cleaned successfully")

	out, err = run(t, server, "-b", "arena", "all")
	require.NoError(t, err)
	var live sdk.Board
	require.NoError(t, json.Unmarshal([]byte(out), &live))
	assert.Empty(t, live.Entries)

	out, err = run(t, server, "-b", "arena", "load")
	require.NoError(t, err)
	var archived sdk.Board
	require.NoError(t, json.Unmarshal([]byte(out), &archived))
	require.Len(t, archived.Entries, 1)
	assert.Equal(t, "alice", archived.Entries[0].ID)
}

func TestSeasonCommands(t *testing.T) {
	server := newServer(t)

	out, err := run(t, server, "-b", "weekly", "season")
	require.NoError(t, err)
	assert.Equal(t, "s1", strings.TrimSpace(out))

	_, err = run(t, server, "-b", "weekly", "set", "w", "4", "p")
	require.NoError(t, err)
	out, err = run(t, server, "-b", "weekly", "rotate")
	require.NoError(t, err)
	assert.Contains(t, out, `"season": "s1"`)

	out, err = run(t, server, "-b", "weekly", "load", "--season", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "w"`)

	_, err = run(t, server, "-b", "arena", "season")
	assert.Error(t, err)
}

func TestBoardsAndHealth(t *testing.T) {
	server := newServer(t)

	out, err := run(t, server, "boards")
	require.NoError(t, err)
	assert.Equal(t, "arena\nweekly\n", out)

	out, err = run(t, server, "health")
	require.NoError(t, err)
	assert.Contains(t, out, `"healthy"`)
}

func TestMissingAPIKey(t *testing.T) {
	server := newServer(t)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--server", server, "--api-key", "", "boards"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}
