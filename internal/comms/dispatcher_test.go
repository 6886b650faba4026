package comms

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/helix-id/helix/internal/shared"
)

type recordingEnqueuer struct {
	payloads []SendMessagePayload
}

func (e *recordingEnqueuer) EnqueueSendMessage(ctx context.Context, payload SendMessagePayload) error {
	e.payloads = append(e.payloads, payload)
	return nil
}

func newDispatcherFixture(t *testing.T, rules *Rules) (*Dispatcher, *recordingEnqueuer) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	enqueuer := &recordingEnqueuer{}
	cache := NewRuleCache(rdb, &countingClient{rules: rules}, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(cache, enqueuer, logger), enqueuer
}

func TestDispatcherSendsTemplatedMessage(t *testing.T) {
	dispatcher, enqueuer := newDispatcherFixture(t, &Rules{
		OnUserCreated: &Rule{
			TemplateID:               "tpl-welcome",
			DefaultContentParameters: map[string]string{"redirectUrl": "https://id.example.com/{accountId}/welcome"},
		},
	})
	accountID := shared.NewReference()

	dispatcher.Send(context.Background(), accountID, OnUserCreated, Message{
		Subject:      "Welcome",
		Destinations: []Destination{{Name: "Ana", Address: "ana@example.com"}},
		Parameters:   []Parameter{{Key: "token", Value: "123456"}},
	})

	require.Len(t, enqueuer.payloads, 1)
	sent := enqueuer.payloads[0]
	require.Equal(t, "tpl-welcome", sent.TemplateID)
	require.Equal(t, accountID, sent.AccountID)
	require.Equal(t, "ana@example.com", sent.Destinations[0].Address)

	params := map[string]string{}
	for _, p := range sent.Parameters {
		params[p.Key] = p.Value
	}
	require.Equal(t, "123456", params["token"])
	require.Equal(t, "https://id.example.com/"+accountID+"/welcome", params["redirectUrl"])
}

func TestDispatcherMissingRuleSkipsSilently(t *testing.T) {
	dispatcher, enqueuer := newDispatcherFixture(t, &Rules{})

	dispatcher.Send(context.Background(), shared.NewReference(), OnUserDeactivated, Message{
		Subject:      "Account deactivated",
		Destinations: []Destination{{Name: "Ana", Address: "ana@example.com"}},
	})
	require.Empty(t, enqueuer.payloads)
}

func TestFormatRedirectURL(t *testing.T) {
	rule := &Rule{DefaultContentParameters: map[string]string{"redirectUrl": "https://x.test/{accountId}"}}
	require.Equal(t, "https://x.test/a1", FormatRedirectURL(rule, "a1"))
	require.Equal(t, "", FormatRedirectURL(nil, "a1"))
	require.Equal(t, "", FormatRedirectURL(&Rule{}, "a1"))
}
