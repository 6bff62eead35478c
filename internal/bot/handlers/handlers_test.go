package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgard/kobot/internal/config"
	"github.com/edgard/kobot/internal/gateway"
	"github.com/edgard/kobot/internal/listen"
	"github.com/edgard/kobot/internal/testutil"
)

const (
	ownerID    = "1000"
	strangerID = "2000"

	generalID gateway.ChannelID = 42
	randomID  gateway.ChannelID = 43
	dmID      gateway.ChannelID = 99
)

type fixture struct {
	gw      *testutil.Gateway
	store   *testutil.Store
	listen  *listen.Set
	logs    *bytes.Buffer
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gw := testutil.NewGateway(gateway.Identity{BotID: "1", BotName: "kobot", OwnerID: ownerID})
	gw.AddChannel(gateway.Channel{ID: generalID, Name: "general", GuildID: "7", GuildName: "Den"})
	gw.AddChannel(gateway.Channel{ID: randomID, Name: "random", GuildID: "7", GuildName: "Den"})
	gw.AddChannel(gateway.Channel{ID: dmID, Name: "dm"})

	f := &fixture{
		gw:     gw,
		store:  testutil.NewStore(),
		listen: listen.New(),
		logs:   &bytes.Buffer{},
	}
	f.handler = NewHandler(HandlerDeps{
		Logger:   slog.New(slog.NewTextHandler(f.logs, nil)),
		Messages: config.DefaultMessages,
		Identity: gw.Ident,
		Gateway:  gw,
		Store:    f.store,
		Listen:   f.listen,
	})
	return f
}

func (f *fixture) send(author string, channel gateway.ChannelID, content string) {
	f.handler.HandleEvent(context.Background(), gateway.Event{
		Kind: gateway.EventMessageReceived,
		Message: &gateway.Message{
			ID:         "m1",
			AuthorID:   author,
			AuthorName: "user" + author,
			ChannelID:  channel,
			GuildID:    "7",
			Content:    content,
		},
	})
}

func TestRegister_OwnerRegistersChannel(t *testing.T) {
	f := newFixture(t)

	f.send(ownerID, generalID, TriggerPhrase)

	require.True(t, f.store.Has(generalID))
	require.True(t, f.listen.Contains(generalID))
	require.Equal(t, []testutil.SentMessage{{
		ChannelID: generalID,
		Text:      "yip! kobot now lives in Den #general (listen mode enabled)",
	}}, f.gw.Sent())
	require.Empty(t, f.gw.Direct())
	require.Equal(t, 1, f.store.AddCalls())
	require.Contains(t, f.logs.String(), "now listening to Den #general (enabled by user1000)")
}

func TestRegister_DuplicateRepliesAlreadyListening(t *testing.T) {
	f := newFixture(t)

	f.send(ownerID, generalID, TriggerPhrase)
	f.send(ownerID, generalID, TriggerPhrase)

	sent := f.gw.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, "kobot is already listening here!", sent[1].Text)
	require.Equal(t, 2, f.store.AddCalls())
	require.Equal(t, 1, f.listen.Len())
}

func TestRegister_NonOwnerGetsDirectMessage(t *testing.T) {
	f := newFixture(t)

	f.send(strangerID, generalID, TriggerPhrase)

	require.Zero(t, f.store.AddCalls())
	require.False(t, f.listen.Contains(generalID))
	require.Empty(t, f.gw.Sent())
	require.Equal(t, []testutil.SentMessage{{
		UserID: strangerID,
		Text:   "you're not authorized to control kobot! (from: general)",
	}}, f.gw.Direct())
}

func TestRegister_NonGuildChannelIgnored(t *testing.T) {
	f := newFixture(t)

	f.send(ownerID, dmID, TriggerPhrase)
	f.send(strangerID, dmID, TriggerPhrase)

	require.Zero(t, f.store.AddCalls())
	require.Empty(t, f.gw.Sent())
	require.Empty(t, f.gw.Direct())
}

func TestRegister_UnresolvableChannelIgnored(t *testing.T) {
	f := newFixture(t)

	f.send(ownerID, 555, TriggerPhrase)

	require.Zero(t, f.store.AddCalls())
	require.Empty(t, f.gw.Sent())
	require.Contains(t, f.logs.String(), "Failed to resolve channel")
}

func TestRegister_StoreErrorLeavesMirrorUntouched(t *testing.T) {
	f := newFixture(t)
	f.store.AddErr = errors.New("connection refused")

	f.send(ownerID, generalID, TriggerPhrase)

	require.False(t, f.listen.Contains(generalID))
	require.Empty(t, f.gw.Sent())
	require.Contains(t, f.logs.String(), "Failed to add channel to listen store")
}

func TestRegister_SendFailureKeepsRegistration(t *testing.T) {
	f := newFixture(t)
	f.gw.SendErr = errors.New("missing permissions")

	f.send(ownerID, generalID, TriggerPhrase)

	require.True(t, f.store.Has(generalID))
	require.True(t, f.listen.Contains(generalID))
	require.NotContains(t, f.logs.String(), "now listening to")
}

func TestRegister_TriggerMustMatchExactly(t *testing.T) {
	f := newFixture(t)

	for _, content := range []string{"Kobot lives here", "kobot lives here!", " kobot lives here", "kobot lives"} {
		f.send(ownerID, generalID, content)
	}

	require.Zero(t, f.store.AddCalls())
	require.Empty(t, f.gw.Sent())
}

func TestRegister_ConcurrentRequestsRegisterOnce(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.send(ownerID, generalID, TriggerPhrase)
		}()
	}
	wg.Wait()

	var registered, duplicate int
	for _, m := range f.gw.Sent() {
		switch m.Text {
		case "yip! kobot now lives in Den #general (listen mode enabled)":
			registered++
		case "kobot is already listening here!":
			duplicate++
		}
	}
	require.Equal(t, 1, registered)
	require.Equal(t, 7, duplicate)
	require.Equal(t, 1, f.listen.Len())
}

func TestPassive_LogsListenedChannelOnly(t *testing.T) {
	f := newFixture(t)
	f.listen.Add(generalID)

	f.send(strangerID, generalID, "hello there")
	f.send(strangerID, randomID, "not logged")

	out := f.logs.String()
	require.Contains(t, out, "#general > hello there")
	require.NotContains(t, out, "not logged")
	require.Empty(t, f.gw.Sent())
	require.Empty(t, f.gw.Direct())
}

func TestPassive_FallsBackToChannelID(t *testing.T) {
	f := newFixture(t)
	f.listen.Add(555)

	f.send(strangerID, 555, "hi")

	require.Contains(t, f.logs.String(), "#555 > hi")
}

func TestPassive_ListenSetIsNotReloadedFromStore(t *testing.T) {
	f := newFixture(t)
	f.store.Insert(generalID)

	f.send(strangerID, generalID, "registered elsewhere")

	require.NotContains(t, f.logs.String(), "registered elsewhere")
}

func TestHandleEvent_IgnoresOwnMessages(t *testing.T) {
	f := newFixture(t)
	f.listen.Add(generalID)

	f.send("1", generalID, "yip! kobot now lives in Den #general (listen mode enabled)")

	require.Empty(t, f.logs.String())
}

func TestReady_LogsConnection(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleEvent(context.Background(), gateway.Event{
		Kind:  gateway.EventConnectionReady,
		Ready: &gateway.Ready{BotName: "kobot"},
	})

	require.Contains(t, f.logs.String(), "kobot is connected!")
}

func TestHandleEvent_IgnoresEmptyEvents(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleEvent(context.Background(), gateway.Event{Kind: gateway.EventMessageReceived})
	f.handler.HandleEvent(context.Background(), gateway.Event{Kind: gateway.EventConnectionReady})

	require.Empty(t, f.logs.String())
}

func TestRender(t *testing.T) {
	t.Parallel()

	ch := &gateway.Channel{Name: "general", GuildName: "Den"}
	require.Equal(t, "Den/general/{other}", render("{server}/{channel}/{other}", ch))
}
