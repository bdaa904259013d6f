package notif

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nirala/internal/common"
	"nirala/internal/metrics"
)

const observerTimeout = 30 * time.Second

// NotificationManager fans delivery events out to its observers from a pool
// of workers reading a buffered channel.
type NotificationManager struct {
	observers    map[string]common.Observer
	eventChannel chan common.NotificationEvent
	workerPool   int
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	wg           sync.WaitGroup
	log          zerolog.Logger
}

var _ common.Subject = (*NotificationManager)(nil)

func NewNotificationManager(workerPoolSize, bufferSize int, log zerolog.Logger) *NotificationManager {
	if workerPoolSize <= 0 {
		workerPoolSize = 1
	}
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	ctx, cancel := context.WithCancel(context.Background())

	nm := &NotificationManager{
		observers:    make(map[string]common.Observer),
		eventChannel: make(chan common.NotificationEvent, bufferSize),
		workerPool:   workerPoolSize,
		ctx:          ctx,
		cancel:       cancel,
		log:          log.With().Str("component", "notification_manager").Logger(),
	}

	for i := 0; i < workerPoolSize; i++ {
		nm.wg.Add(1)
		go nm.processEvents()
	}

	return nm
}

func (nm *NotificationManager) Subscribe(observer common.Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.observers[observer.Name()] = observer
	nm.log.Info().Str("observer", observer.Name()).Msg("observer subscribed")
}

func (nm *NotificationManager) Unsubscribe(observer common.Observer) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.observers, observer.Name())
	nm.log.Info().Str("observer", observer.Name()).Msg("observer unsubscribed")
}

// Notify runs every observer for event. Observer failures are logged and
// never stop the other observers.
func (nm *NotificationManager) Notify(ctx context.Context, event common.NotificationEvent) {
	nm.mu.RLock()
	observers := make([]common.Observer, 0, len(nm.observers))
	for _, obs := range nm.observers {
		observers = append(observers, obs)
	}
	nm.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Update(ctx, event); err != nil {
			nm.log.Warn().Err(err).
				Str("observer", observer.Name()).
				Str("type", string(event.Type)).
				Str("user_id", event.UserID).
				Msg("observer update failed")
		}
	}
}

// NotifyAsync queues event for the workers. It drops the event when the
// queue is full or the manager is shutting down.
func (nm *NotificationManager) NotifyAsync(event common.NotificationEvent) {
	select {
	case <-nm.ctx.Done():
		return
	default:
	}

	select {
	case nm.eventChannel <- event:
	default:
		metrics.EventQueueDropped.Inc()
		nm.log.Warn().Str("type", string(event.Type)).Str("user_id", event.UserID).
			Msg("notification channel full, dropping event")
	}
}

func (nm *NotificationManager) processEvents() {
	defer nm.wg.Done()

	for {
		select {
		case event := <-nm.eventChannel:
			nm.deliver(event)
		case <-nm.ctx.Done():
			nm.drain()
			return
		}
	}
}

// drain delivers whatever was queued before shutdown.
func (nm *NotificationManager) drain() {
	for {
		select {
		case event := <-nm.eventChannel:
			nm.deliver(event)
		default:
			return
		}
	}
}

func (nm *NotificationManager) deliver(event common.NotificationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), observerTimeout)
	defer cancel()
	nm.Notify(ctx, event)
}

func (nm *NotificationManager) Shutdown() {
	nm.cancel()
	nm.wg.Wait()
	nm.log.Info().Msg("notification manager shutdown complete")
}
