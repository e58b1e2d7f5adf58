package tui

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook/blindsolver/internal/bridge"
	"github.com/rook/blindsolver/internal/bridge/inspect"
)

func TestInspectorModelReceivesAndRendersEvent(t *testing.T) {
	hub := inspect.NewHub(log.New(io.Discard))
	server := httptest.NewServer(hub)
	defer server.Close()

	addr := "ws" + strings.TrimPrefix(server.URL, "http")
	model, err := NewInspectorModel(addr, log.New(io.Discard))
	require.NoError(t, err)
	defer model.conn.Close()

	// Let the server register the connection before publishing.
	time.Sleep(20 * time.Millisecond)

	hub.Publish(bridge.InspectEvent{
		RequestID: "req-1",
		Snapshot:  bridge.Snapshot{PhaseName: bridge.PhaseSelectingHand, Ante: 2, Money: 10},
		Action:    bridge.ActionReply{ActionType: bridge.ActionPlay, CardIndices: []int{0, 1}, Confidence: 1.0},
	})

	var event bridge.InspectEvent
	select {
	case e, ok := <-model.events:
		require.True(t, ok)
		event = e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inspect event")
	}

	updated, _ := model.Update(inspectEventMsg(event))
	m := updated.(*InspectorModel)
	assert.Equal(t, "req-1", m.latest.RequestID)
	assert.Contains(t, m.renderSidebarPane(), "ante:      2")
	assert.Contains(t, m.renderDetailPane(), "play")
}
