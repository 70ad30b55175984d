package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gridpulse/csipd/core/logger"
	"github.com/gridpulse/csipd/core/metrics"
	"github.com/gridpulse/csipd/core/model"
	"github.com/gridpulse/csipd/internal/taskq"
)

// Headers set on every outbound notification so receivers can identify the
// subscription and deduplicate retried deliveries.
const (
	HeaderSubscription   = "X-Csipd-Subscription"
	HeaderNotificationID = "X-Csipd-Notification-Id"
)

const notificationContentType = "application/sep+xml"

// retryDelays is the backoff ladder applied between delivery attempts.
// Monotonically non-decreasing; past the last step the notification is
// dropped.
var retryDelays = []time.Duration{
	10 * time.Second,
	100 * time.Second,
	300 * time.Second,
	30 * time.Minute,
}

// AttemptToRetryDelay returns the delay before retrying after the given
// attempt number, or false once no retries remain.
func AttemptToRetryDelay(attempt int) (time.Duration, bool) {
	if attempt < 0 || attempt >= len(retryDelays) {
		return 0, false
	}
	return retryDelays[attempt], true
}

// TransmitTask carries one notification delivery attempt.
type TransmitTask struct {
	RemoteURI        string `json:"remote_uri"`
	Content          string `json:"content"`
	SubscriptionHref string `json:"subscription_href"`
	SubscriptionID   int64  `json:"subscription_id"`
	NotificationID   string `json:"notification_id"`
	Attempt          int    `json:"attempt"`
}

// TransmitOutcome classifies one delivery attempt.
type TransmitOutcome int

const (
	// OutcomeDone means the receiver accepted the notification (2xx).
	OutcomeDone TransmitOutcome = iota
	// OutcomeAborted means the receiver permanently rejected it
	// (redirect or 4xx); no retry is attempted.
	OutcomeAborted
	// OutcomeRetryable means a transient failure (5xx or transport
	// error); a retry may be scheduled.
	OutcomeRetryable
)

func (o TransmitOutcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeAborted:
		return "aborted"
	case OutcomeRetryable:
		return "retry"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// TransmitResult captures the observable result of one POST.
type TransmitResult struct {
	Outcome    TransmitOutcome
	StatusCode int // -1 when the request never completed
	Start      time.Time
	End        time.Time
}

// Transmitter performs outbound notification POSTs and schedules
// exponential-backoff style retries on transient failures.
type Transmitter struct {
	client  *http.Client
	broker  taskq.Broker
	logs    TransmitLogger // optional
	metrics metrics.Sink
	log     logger.Logger
}

// NewTransmitter creates a Transmitter. logs may be nil to disable
// transmit logging.
func NewTransmitter(broker taskq.Broker, logs TransmitLogger, sink metrics.Sink, log logger.Logger, timeout time.Duration) (*Transmitter, error) {
	if broker == nil || log == nil {
		return nil, fmt.Errorf("notify: nil parameter provided to NewTransmitter")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Transmitter{
		client:  &http.Client{Timeout: timeout},
		broker:  broker,
		logs:    logs,
		metrics: sink,
		log:     log,
	}, nil
}

// HandleTransmit is the taskq entry point for TaskTransmit payloads.
func (t *Transmitter) HandleTransmit(ctx context.Context, payload []byte) {
	var task TransmitTask
	if err := json.Unmarshal(payload, &task); err != nil {
		t.log.Errorf("malformed transmit task: %v", err)
		return
	}

	result := t.send(ctx, task)
	t.appendLog(ctx, task, result)

	outcome := result.Outcome.String()
	switch result.Outcome {
	case OutcomeDone:
		t.log.Debugf("delivered notification %s to %s (attempt %d)", task.NotificationID, task.RemoteURI, task.Attempt)
	case OutcomeAborted:
		t.log.Errorf("received HTTP %d delivering notification %s to %s (attempt %d), no retries", result.StatusCode, task.NotificationID, task.RemoteURI, task.Attempt)
	case OutcomeRetryable:
		delay, ok := AttemptToRetryDelay(task.Attempt)
		if !ok {
			outcome = "dropped"
			t.log.Errorf("dropping notification %s to %s, too many failed attempts", task.NotificationID, task.RemoteURI)
			break
		}
		next := task
		next.Attempt++
		nextPayload, err := json.Marshal(next)
		if err != nil {
			t.log.Errorf("encode retry for notification %s: %v", task.NotificationID, err)
			break
		}
		if err := t.broker.EnqueueAfter(ctx, delay, taskq.Task{Name: TaskTransmit, Payload: nextPayload}); err != nil {
			t.log.Errorf("schedule retry for notification %s: %v", task.NotificationID, err)
			break
		}
		t.log.Warnf("retrying notification %s to %s in %s (attempt %d)", task.NotificationID, task.RemoteURI, delay, next.Attempt)
	}

	if err := t.metrics.RecordTransmit(metrics.TransmitEvent{
		Outcome:    outcome,
		HTTPStatus: result.StatusCode,
		Attempt:    task.Attempt,
		Duration:   result.End.Sub(result.Start),
	}); err != nil {
		t.log.Warnf("record transmit metric: %v", err)
	}
}

// send POSTs the notification and classifies the response. Transport
// failures and 5xx responses are retryable; redirects and 4xx responses
// mean the destination will never accept this notification shape.
func (t *Transmitter) send(ctx context.Context, task TransmitTask) TransmitResult {
	start := time.Now().UTC()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, task.RemoteURI, strings.NewReader(task.Content))
	if err != nil {
		t.log.Errorf("build request for notification %s to %s: %v", task.NotificationID, task.RemoteURI, err)
		return TransmitResult{Outcome: OutcomeRetryable, StatusCode: -1, Start: start, End: time.Now().UTC()}
	}
	req.Header.Set("Content-Type", notificationContentType)
	req.Header.Set(HeaderSubscription, task.SubscriptionHref)
	req.Header.Set(HeaderNotificationID, task.NotificationID)

	resp, err := t.client.Do(req)
	end := time.Now().UTC()
	if err != nil {
		t.log.Errorf("transport error delivering notification %s to %s (attempt %d): %v", task.NotificationID, task.RemoteURI, task.Attempt, err)
		return TransmitResult{Outcome: OutcomeRetryable, StatusCode: -1, Start: start, End: end}
	}
	defer func() { _ = resp.Body.Close() }()
	// The response body carries nothing we act on.
	_, _ = io.Copy(io.Discard, resp.Body)

	result := TransmitResult{StatusCode: resp.StatusCode, Start: start, End: end}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result.Outcome = OutcomeDone
	case resp.StatusCode >= 300 && resp.StatusCode < 500:
		result.Outcome = OutcomeAborted
	default:
		result.Outcome = OutcomeRetryable
	}
	return result
}

// appendLog records the attempt in the transmit log. Best effort only.
func (t *Transmitter) appendLog(ctx context.Context, task TransmitTask, result TransmitResult) {
	if t.logs == nil {
		return
	}
	rec := model.TransmitLog{
		SubscriptionID:        task.SubscriptionID,
		TransmitTime:          result.Start,
		TransmitDurationMS:    result.End.Sub(result.Start).Milliseconds(),
		NotificationSizeBytes: len(task.Content),
		Attempt:               task.Attempt,
		HTTPStatusCode:        result.StatusCode,
	}
	if err := t.logs.AppendTransmitLog(ctx, rec); err != nil {
		t.log.Errorf("append transmit log for subscription %d: %v", task.SubscriptionID, err)
	}
}
