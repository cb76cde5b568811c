package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSClient represents a WebSocket client for Solana log subscriptions
type WSClient struct {
	url            string
	conn           *websocket.Conn
	logger         *logrus.Logger
	mu             sync.RWMutex
	subscriptions  map[int]*Subscription // keyed by request id
	serverSubs     map[int]*Subscription // keyed by server-side subscription id
	nextID         int
	ctx            context.Context
	cancel         context.CancelFunc
	reconnectDelay time.Duration

	messagesReceived int
	messagesSent     int
	reconnectCount   int
	lastActivity     time.Time
}

// Subscription tracks one logsSubscribe request
type Subscription struct {
	ID          int
	ServerID    int
	Method      string
	Params      interface{}
	Handler     EventHandler
	Active      bool
	Created     time.Time
	LastMessage time.Time
}

// EventHandler handles WebSocket events
type EventHandler func(data interface{}) error

// WSMessage is a JSON-RPC message over the WebSocket
type WSMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *int              `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  interface{}       `json:"params,omitempty"`
	Result  interface{}       `json:"result,omitempty"`
	Error   *jsonrpc.RPCError `json:"error,omitempty"`
}

// LogsNotification represents a logs notification
type LogsNotification struct {
	Subscription int `json:"subscription"`
	Result       struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string      `json:"signature"`
			Err       interface{} `json:"err"`
			Logs      []string    `json:"logs"`
		} `json:"value"`
	} `json:"result"`
}

// NewWSClient creates a new WebSocket client
func NewWSClient(url string, logger *logrus.Logger) *WSClient {
	ctx, cancel := context.WithCancel(context.Background())

	return &WSClient{
		url:            url,
		logger:         logger,
		subscriptions:  make(map[int]*Subscription),
		serverSubs:     make(map[int]*Subscription),
		ctx:            ctx,
		cancel:         cancel,
		reconnectDelay: 5 * time.Second,
		lastActivity:   time.Now(),
	}
}

// Connect establishes the WebSocket connection
func (ws *WSClient) Connect() error {
	ws.logger.WithField("url", ws.url).Info("🔌 Connecting to Solana WebSocket...")

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, resp, err := dialer.Dial(ws.url, nil)
	if err != nil {
		if resp != nil {
			ws.logger.WithFields(logrus.Fields{
				"status":      resp.Status,
				"status_code": resp.StatusCode,
				"url":         ws.url,
			}).Error("❌ WebSocket connection failed")
		}
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}

	ws.mu.Lock()
	ws.conn = conn
	ws.lastActivity = time.Now()
	ws.mu.Unlock()

	ws.logger.WithField("url", ws.url).Info("✅ WebSocket connected successfully")

	conn.SetReadLimit(1024 * 1024) // 1MB read limit
	conn.SetPongHandler(func(string) error {
		ws.mu.Lock()
		ws.lastActivity = time.Now()
		ws.mu.Unlock()
		return nil
	})

	go ws.handleMessages()
	go ws.pingHandler()

	return nil
}

// Disconnect closes the WebSocket connection and stops all goroutines
func (ws *WSClient) Disconnect() error {
	ws.cancel()

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.conn != nil {
		err := ws.conn.Close()
		ws.conn = nil
		return err
	}

	return nil
}

// SubscribeToLogs subscribes to log notifications mentioning the program
func (ws *WSClient) SubscribeToLogs(programID string, handler EventHandler) (int, error) {
	params := []interface{}{
		map[string]interface{}{
			"mentions": []string{programID},
		},
		map[string]interface{}{
			"commitment": "processed",
		},
	}

	return ws.subscribe("logsSubscribe", params, handler)
}

func (ws *WSClient) subscribe(method string, params interface{}, handler EventHandler) (int, error) {
	ws.mu.Lock()
	id := ws.nextID
	ws.nextID++
	ws.mu.Unlock()

	subscription := &Subscription{
		ID:      id,
		Method:  method,
		Params:  params,
		Handler: handler,
		Created: time.Now(),
	}

	message := WSMessage{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  params,
	}

	ws.logger.WithFields(logrus.Fields{
		"method": method,
		"id":     id,
	}).Info("📡 Sending WebSocket subscription request")

	if err := ws.sendMessage(message); err != nil {
		return 0, fmt.Errorf("failed to send subscription: %w", err)
	}

	ws.mu.Lock()
	ws.subscriptions[id] = subscription
	ws.mu.Unlock()

	return id, nil
}

// Unsubscribe cancels a subscription by request id
func (ws *WSClient) Unsubscribe(id int) error {
	ws.mu.RLock()
	subscription, exists := ws.subscriptions[id]
	ws.mu.RUnlock()

	if !exists {
		return fmt.Errorf("subscription %d not found", id)
	}

	message := WSMessage{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  "logsUnsubscribe",
		Params:  []interface{}{subscription.ServerID},
	}

	if err := ws.sendMessage(message); err != nil {
		return fmt.Errorf("failed to send unsubscribe: %w", err)
	}

	ws.mu.Lock()
	delete(ws.subscriptions, id)
	delete(ws.serverSubs, subscription.ServerID)
	ws.mu.Unlock()

	ws.logger.WithField("id", id).Info("🗑️ Subscription cancelled")
	return nil
}

// sendMessage sends a message over the WebSocket
func (ws *WSClient) sendMessage(message WSMessage) error {
	ws.mu.RLock()
	conn := ws.conn
	ws.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("WebSocket not connected")
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = conn.WriteMessage(websocket.TextMessage, data)
	if err == nil {
		ws.mu.Lock()
		ws.messagesSent++
		ws.lastActivity = time.Now()
		ws.mu.Unlock()
	}

	return err
}

// handleMessages handles incoming WebSocket messages
func (ws *WSClient) handleMessages() {
	defer ws.logger.Info("🛑 WebSocket message handler stopped")

	for {
		select {
		case <-ws.ctx.Done():
			return
		default:
			ws.mu.RLock()
			conn := ws.conn
			ws.mu.RUnlock()

			if conn == nil {
				ws.logger.Warn("⚠️ Connection lost, attempting to reconnect...")
				if err := ws.attemptReconnect(); err != nil {
					ws.logger.WithError(err).Error("❌ Reconnection failed")
					select {
					case <-ws.ctx.Done():
						return
					case <-time.After(ws.reconnectDelay):
					}
				}
				continue
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					ws.logger.WithError(err).Error("❌ WebSocket read error")
				}

				ws.mu.Lock()
				ws.conn = nil
				ws.mu.Unlock()

				continue
			}

			ws.mu.Lock()
			ws.messagesReceived++
			ws.lastActivity = time.Now()
			ws.mu.Unlock()

			var message WSMessage
			if err := json.Unmarshal(data, &message); err != nil {
				ws.logger.WithError(err).Error("❌ Failed to unmarshal WebSocket message")
				continue
			}

			ws.handleMessage(message)
		}
	}
}

// handleMessage processes a single WebSocket message
func (ws *WSClient) handleMessage(message WSMessage) {
	// Subscription confirmation carries the server-side subscription id
	if message.ID != nil && message.Result != nil {
		serverID, ok := message.Result.(float64)
		if !ok {
			return
		}

		ws.mu.Lock()
		subscription, exists := ws.subscriptions[*message.ID]
		if exists {
			subscription.Active = true
			subscription.ServerID = int(serverID)
			subscription.LastMessage = time.Now()
			ws.serverSubs[subscription.ServerID] = subscription
		}
		ws.mu.Unlock()

		if exists {
			ws.logger.WithFields(logrus.Fields{
				"method":    subscription.Method,
				"id":        *message.ID,
				"server_id": subscription.ServerID,
			}).Info("✅ WebSocket subscription confirmed")
		}
		return
	}

	if message.Error != nil {
		ws.logger.WithFields(logrus.Fields{
			"code":    message.Error.Code,
			"message": message.Error.Message,
		}).Error("❌ WebSocket error received")
		return
	}

	if message.Method == "logsNotification" {
		ws.handleLogsNotification(message.Params)
	}
}

// handleLogsNotification routes a logs notification to its subscription handler
func (ws *WSClient) handleLogsNotification(params interface{}) {
	data, err := json.Marshal(params)
	if err != nil {
		ws.logger.WithError(err).Error("❌ Failed to marshal logs notification")
		return
	}

	var notification LogsNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		ws.logger.WithError(err).Error("❌ Failed to unmarshal logs notification")
		return
	}

	ws.mu.Lock()
	subscription := ws.serverSubs[notification.Subscription]
	if subscription != nil {
		subscription.LastMessage = time.Now()
	}
	ws.mu.Unlock()

	if subscription == nil || subscription.Handler == nil {
		ws.logger.WithField("subscription", notification.Subscription).
			Debug("❓ Logs notification for unknown subscription")
		return
	}

	// Handlers run on the read loop so notifications reach consumers in
	// arrival order. Handlers must not block; the event source hands off
	// to a buffered channel.
	if err := subscription.Handler(notification); err != nil {
		ws.logger.WithError(err).WithField("subscription_id", subscription.ID).
			Error("❌ Logs notification handler error")
	}
}

// attemptReconnect reconnects and resubscribes everything that was active
func (ws *WSClient) attemptReconnect() error {
	ws.mu.Lock()
	ws.reconnectCount++
	attempt := ws.reconnectCount
	ws.mu.Unlock()

	ws.logger.WithField("attempt", attempt).Info("🔄 Attempting to reconnect WebSocket...")

	if err := ws.Connect(); err != nil {
		return fmt.Errorf("reconnection failed: %w", err)
	}

	ws.mu.Lock()
	old := make([]*Subscription, 0, len(ws.subscriptions))
	for _, sub := range ws.subscriptions {
		old = append(old, sub)
	}
	ws.subscriptions = make(map[int]*Subscription)
	ws.serverSubs = make(map[int]*Subscription)
	ws.mu.Unlock()

	resubscribed := 0
	for _, sub := range old {
		if _, err := ws.subscribe(sub.Method, sub.Params, sub.Handler); err != nil {
			ws.logger.WithError(err).WithField("method", sub.Method).Error("❌ Failed to resubscribe")
		} else {
			resubscribed++
		}
	}

	ws.logger.WithFields(logrus.Fields{
		"reconnect_count": attempt,
		"resubscribed":    resubscribed,
	}).Info("✅ WebSocket reconnected successfully")

	return nil
}

// pingHandler sends periodic ping messages
func (ws *WSClient) pingHandler() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ws.ctx.Done():
			return
		case <-ticker.C:
			ws.mu.RLock()
			conn := ws.conn
			lastActivity := ws.lastActivity
			ws.mu.RUnlock()

			if conn != nil {
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					ws.logger.WithError(err).Debug("❌ Failed to send ping")
				}

				if time.Since(lastActivity) > 2*time.Minute {
					ws.logger.WithField("last_activity", lastActivity).
						Warn("⚠️ Connection appears stale - no activity for 2+ minutes")
				}
			}
		}
	}
}

// Stats returns current connection statistics
func (ws *WSClient) Stats() map[string]interface{} {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	active := 0
	for _, sub := range ws.subscriptions {
		if sub.Active {
			active++
		}
	}

	return map[string]interface{}{
		"messages_received":    ws.messagesReceived,
		"messages_sent":        ws.messagesSent,
		"active_subscriptions": active,
		"total_subscriptions":  len(ws.subscriptions),
		"reconnect_count":      ws.reconnectCount,
		"last_activity":        ws.lastActivity,
		"connection_active":    ws.conn != nil,
	}
}
