package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/solana"
)

const eventBufferSize = 256

// EventSource emits normalized pool-creation events. Events() never closes;
// consumers select on their own context.
type EventSource interface {
	Start(ctx context.Context) error
	Events() <-chan PoolEvent
	Stop() error
}

// Normalizer turns raw program logs into a PoolEvent. Returning false drops
// the notification.
type Normalizer interface {
	Normalize(platform, signature string, slot uint64, logs []string) (PoolEvent, bool)
}

// NormalizerFunc adapts a function to the Normalizer interface
type NormalizerFunc func(platform, signature string, slot uint64, logs []string) (PoolEvent, bool)

func (f NormalizerFunc) Normalize(platform, signature string, slot uint64, logs []string) (PoolEvent, bool) {
	return f(platform, signature, slot, logs)
}

// WSSource subscribes to each platform's program logs over one WebSocket
// connection and fans the normalized events into a single channel.
type WSSource struct {
	ws        *solana.WSClient
	platforms []Platform
	normalize Normalizer
	log       *logger.Logger

	mu      sync.Mutex
	events  chan PoolEvent
	subIDs  []int
	started bool
	stopped bool
	dropped int
}

// NewWSSource creates a fan-out source over the given WebSocket client
func NewWSSource(ws *solana.WSClient, platforms []Platform, normalize Normalizer, log *logger.Logger) *WSSource {
	return &WSSource{
		ws:        ws,
		platforms: platforms,
		normalize: normalize,
		log:       log,
		events:    make(chan PoolEvent, eventBufferSize),
	}
}

// Start connects and subscribes to all platform programs
func (s *WSSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("event source already started")
	}
	s.started = true
	s.mu.Unlock()

	if err := s.ws.Connect(); err != nil {
		return fmt.Errorf("failed to connect event source: %w", err)
	}

	for _, platform := range s.platforms {
		p := platform
		subID, err := s.ws.SubscribeToLogs(p.ProgramID, func(data interface{}) error {
			return s.handleNotification(p, data)
		})
		if err != nil {
			s.Stop()
			return fmt.Errorf("failed to subscribe to %s logs: %w", p.Name, err)
		}

		s.mu.Lock()
		s.subIDs = append(s.subIDs, subID)
		s.mu.Unlock()

		s.log.WithFields(logrus.Fields{
			"platform":   p.Name,
			"program_id": p.ProgramID,
		}).Info("📡 Watching platform for new pools")
	}

	return nil
}

// Events returns the fan-out channel
func (s *WSSource) Events() <-chan PoolEvent {
	return s.events
}

// Stop unsubscribes everything and closes the connection
func (s *WSSource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	subIDs := s.subIDs
	s.subIDs = nil
	s.mu.Unlock()

	for _, id := range subIDs {
		if err := s.ws.Unsubscribe(id); err != nil {
			s.log.WithError(err).WithField("subscription_id", id).Debug("Unsubscribe failed during shutdown")
		}
	}

	return s.ws.Disconnect()
}

func (s *WSSource) handleNotification(platform Platform, data interface{}) error {
	notification, ok := data.(solana.LogsNotification)
	if !ok {
		return fmt.Errorf("unexpected notification type %T", data)
	}

	// Failed transactions cannot have created a pool
	if notification.Result.Value.Err != nil {
		return nil
	}

	event, ok := s.normalize.Normalize(
		platform.Name,
		notification.Result.Value.Signature,
		notification.Result.Context.Slot,
		notification.Result.Value.Logs,
	)
	if !ok {
		return nil
	}

	if event.DetectedAt.IsZero() {
		event.DetectedAt = time.Now().UTC()
	}

	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil
	}

	select {
	case s.events <- event:
		s.log.LogPoolDetected(event.Platform, event.TokenAddress, event.PoolAddress, event.LiquiditySOL)
	default:
		s.mu.Lock()
		s.dropped++
		dropped := s.dropped
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{
			"platform":      event.Platform,
			"dropped_total": dropped,
		}).Warn("⚠️ Event buffer full, dropping pool event")
	}

	return nil
}

var _ EventSource = (*WSSource)(nil)
