package solana

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func registerSubscription(ws *WSClient, serverID int, handler EventHandler) {
	sub := &Subscription{
		ID:       serverID,
		ServerID: serverID,
		Method:   "logsSubscribe",
		Handler:  handler,
		Active:   true,
		Created:  time.Now(),
	}
	ws.mu.Lock()
	ws.subscriptions[sub.ID] = sub
	ws.serverSubs[serverID] = sub
	ws.mu.Unlock()
}

func logsParams(serverID int, signature string) map[string]interface{} {
	return map[string]interface{}{
		"subscription": serverID,
		"result": map[string]interface{}{
			"context": map[string]interface{}{"slot": 100},
			"value": map[string]interface{}{
				"signature": signature,
				"err":       nil,
				"logs":      []string{"Program log: Instruction: Create"},
			},
		},
	}
}

func TestLogsNotificationsDeliverInArrivalOrder(t *testing.T) {
	ws := NewWSClient("ws://localhost", quietLogger())

	var seen []string
	registerSubscription(ws, 7, func(data interface{}) error {
		notification, ok := data.(LogsNotification)
		require.True(t, ok)
		seen = append(seen, notification.Result.Value.Signature)
		return nil
	})

	const burst = 50
	for i := 0; i < burst; i++ {
		ws.handleLogsNotification(logsParams(7, fmt.Sprintf("sig-%03d", i)))
	}

	// Dispatch is synchronous on the read path, so by the time the burst
	// returns every notification has been handled, in order.
	require.Len(t, seen, burst)
	for i, sig := range seen {
		assert.Equal(t, fmt.Sprintf("sig-%03d", i), sig)
	}
}

func TestLogsNotificationRoutesByServerSubscriptionID(t *testing.T) {
	ws := NewWSClient("ws://localhost", quietLogger())

	var first, second []string
	registerSubscription(ws, 1, func(data interface{}) error {
		first = append(first, data.(LogsNotification).Result.Value.Signature)
		return nil
	})
	registerSubscription(ws, 2, func(data interface{}) error {
		second = append(second, data.(LogsNotification).Result.Value.Signature)
		return nil
	})

	ws.handleLogsNotification(logsParams(2, "sig-b"))
	ws.handleLogsNotification(logsParams(1, "sig-a"))

	assert.Equal(t, []string{"sig-a"}, first)
	assert.Equal(t, []string{"sig-b"}, second)
}

func TestLogsNotificationUnknownSubscriptionIsDropped(t *testing.T) {
	ws := NewWSClient("ws://localhost", quietLogger())

	called := false
	registerSubscription(ws, 1, func(data interface{}) error {
		called = true
		return nil
	})

	ws.handleLogsNotification(logsParams(99, "sig-x"))
	assert.False(t, called)
}
