package events

import (
	"context"
	"sync"
	"time"

	"shorts_backend/models"
	"shorts_backend/pkg/logging"
)

// LocalBroker is the in-process Publisher used when no redis is
// configured. Subscribers that fall behind lose events rather than
// block the pipeline.
type LocalBroker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan *models.ProgressEvent
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[int]chan *models.ProgressEvent)}
}

func (b *LocalBroker) Publish(event *models.ProgressEvent) error {
	event.Timestamp = time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			logging.Logger.Warn("dropping progress event for slow subscriber",
				"sessionID", event.SessionID,
				"type", event.Type,
			)
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context) (<-chan *models.ProgressEvent, error) {
	ch := make(chan *models.ProgressEvent, 100)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
