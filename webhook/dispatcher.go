// Package webhook delivers alert events to the configured external endpoint.
// Delivery is at-most-once and best-effort: events are queued on a bounded
// channel, posted once with a bounded timeout, and failures are logged and
// counted but never retried and never surfaced to the analysis request.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/apex/log"

	"cattle-monitor-service/metrics"
	"cattle-monitor-service/models"
	"cattle-monitor-service/sanitize"
)

const (
	// DefaultQueueSize bounds the number of undelivered events held in memory.
	DefaultQueueSize = 64
	requestTimeout   = 10 * time.Second
)

// Dispatcher posts alert events to a fixed endpoint. The endpoint is set at
// construction and immutable afterwards.
type Dispatcher struct {
	url        string
	httpClient *http.Client

	queue chan models.AlertEvent
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewDispatcher creates a dispatcher and starts its delivery worker. An
// empty url disables delivery (events are dropped silently); queueSize <= 0
// selects DefaultQueueSize.
func NewDispatcher(url string, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		url: url,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		queue: make(chan models.AlertEvent, queueSize),
	}

	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch sanitizes and enqueues an event. It never blocks the caller: when
// the queue is full the event is dropped and counted. The caller's response
// path does not wait for delivery.
func (d *Dispatcher) Dispatch(event models.AlertEvent) {
	if d.url == "" {
		return
	}

	cleaned := sanitize.Clean(event).(models.AlertEvent)

	select {
	case d.queue <- cleaned:
	default:
		log.Warnf("Webhook queue full, dropping %s event for %s", event.Event, event.EntityID)
		metrics.WebhookDeliveryTotal.WithLabelValues("dropped").Inc()
	}
}

// Close stops accepting events and waits for queued deliveries to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		if err := d.post(event); err != nil {
			log.Errorf("Webhook delivery failed for %s event (%s): %v", event.Event, event.EntityID, err)
			metrics.WebhookDeliveryTotal.WithLabelValues("failed").Inc()
			continue
		}
		log.Infof("Webhook delivered: %s for %s", event.Event, event.EntityID)
		metrics.WebhookDeliveryTotal.WithLabelValues("delivered").Inc()
	}
}

func (d *Dispatcher) post(event models.AlertEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	req, err := http.NewRequest("POST", d.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// The response body is not consumed beyond draining the connection.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
