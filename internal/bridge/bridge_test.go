package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook/blindsolver/internal/solver/registry"
)

func strPtr(s string) *string { return &s }

func pairSnapshot() Snapshot {
	return Snapshot{
		PhaseName:         PhaseSelectingHand,
		Ante:              1,
		Money:             4,
		HandsRemaining:    4,
		DiscardsRemaining: 3,
		HandSize:          2,
		Hand: []LiveCard{
			{Suit: "Spades", Rank: 14, RankName: "Ace", Index: 0},
			{Suit: "Hearts", Rank: 14, RankName: "Ace", Index: 1},
		},
		Blind:    LiveBlind{Name: "Small Blind", ChipsRequired: 64, ChipsScored: 0, BlindType: "Small"},
		DeckInfo: LiveDeckInfo{CardsInDeck: 50, CardsInHand: 2},
		Stats:    LiveStats{},
	}
}

func TestTranslateCardModifiers(t *testing.T) {
	lc := LiveCard{Suit: "Diamonds", Rank: 11, Enhancement: strPtr("glass"), Edition: strPtr("foil"), Seal: strPtr("red")}
	c := toCard(lc)
	assert.True(t, c.Edition.String() == "foil")
	assert.True(t, c.Enhancement.String() == "glass")
	assert.True(t, c.Seal.String() == "red")
}

func TestUnknownEntityIDDropped(t *testing.T) {
	reg := registry.New()
	entities, dropped := toEntities([]LiveEntity{{ID: "not_a_real_entity", Name: "???"}}, reg)
	assert.Empty(t, entities)
	assert.Equal(t, []string{"not_a_real_entity"}, dropped)
}

func TestServerLethalGateOverTheWire(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New()
	go srv.Serve(listener)
	defer srv.Shutdown(context.Background())

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	snap := pairSnapshot()
	// A pair of Aces scores exactly 64 (32*2), which would only just meet
	// a requirement of 64; use a lower requirement to force a clean lethal.
	snap.Blind.ChipsRequired = 50
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Write(append(payload, '\n'))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)

	var reply ActionReply
	require.NoError(t, json.Unmarshal([]byte(line), &reply))
	assert.Equal(t, ActionPlay, reply.ActionType)
	assert.ElementsMatch(t, []int{0, 1}, reply.CardIndices)
	assert.Equal(t, 1.0, reply.Confidence)
}

func TestServerMalformedLineReturnsError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New()
	go srv.Serve(listener)
	defer srv.Shutdown(context.Background())

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Write([]byte("{not json\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)

	var reply ErrorReply
	require.NoError(t, json.Unmarshal([]byte(line), &reply))
	assert.NotEmpty(t, reply.Error)
}
