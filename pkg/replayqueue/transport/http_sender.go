// Package transport provides the production Sender and conflict Resender
// implementations for the write replay queue: plain net/http requests
// carrying each operation's captured method, URL, headers, and body.
// Grounded on netquality.httpDetector's timeout-guarded client pattern,
// generalized from a fixed HEAD probe to an arbitrary captured request.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/offlinefoundation/core/pkg/offlineerrors"
	"github.com/offlinefoundation/core/pkg/replayqueue"
)

// ForceHeader is the default header used to signal a forced write when no
// Conflict.ForceSaveField is configured.
const ForceHeader = "X-Idempotency-Force"

// HTTPSender replays a queued Operation as a plain HTTP request, grounded
// on the original system's browser-side fetch() replay: the captured
// method, URL, headers, and body are sent verbatim, plus the operation's
// idempotency key.
type HTTPSender struct {
	client *http.Client
}

// NewHTTPSender constructs a Sender with the given per-request timeout.
func NewHTTPSender(timeout time.Duration) *HTTPSender {
	return &HTTPSender{client: &http.Client{Timeout: timeout}}
}

// Send implements replayqueue.Sender.
func (s *HTTPSender) Send(ctx context.Context, op *replayqueue.Operation) (int, error) {
	req, err := http.NewRequestWithContext(ctx, op.Method, op.URL, bytes.NewReader([]byte(op.Body)))
	if err != nil {
		return 0, offlineerrors.Wrap(offlineerrors.CodeClientFatal, "failed to build replay request", err)
	}

	for k, v := range op.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Idempotency-Key", op.IdempotencyKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// QueueResender implements conflict.Resender by looking up the conflicted
// operation in the replay queue, substituting the resolved value as the
// request body, marking the force signal the backend contract expects, and
// re-sending it through the same HTTPSender used for ordinary drains.
type QueueResender struct {
	queue      *replayqueue.Queue
	sender     *HTTPSender
	forceField string
}

// NewQueueResender constructs a Resender. forceField, if non-empty, signals
// force by merging {forceField: true} into the JSON body instead of setting
// ForceHeader.
func NewQueueResender(queue *replayqueue.Queue, sender *HTTPSender, forceField string) *QueueResender {
	return &QueueResender{queue: queue, sender: sender, forceField: forceField}
}

// ResendForced implements conflict.Resender.
func (r *QueueResender) ResendForced(ctx context.Context, operationID string, value json.RawMessage) error {
	op, found, err := r.queue.Get(operationID)
	if err != nil {
		return err
	}
	if !found {
		return offlineerrors.New(offlineerrors.CodeClientFatal, "operation not found: "+operationID)
	}

	body, err := r.forcedBody(value)
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeClientFatal, "failed to build forced resend body", err)
	}
	op.Body = string(body)
	if r.forceField == "" {
		if op.Headers == nil {
			op.Headers = map[string]string{}
		}
		op.Headers[ForceHeader] = "true"
	}

	statusCode, err := r.sender.Send(ctx, op)
	if err != nil {
		return err
	}
	if statusCode < 200 || statusCode >= 300 {
		return offlineerrors.New(offlineerrors.CodeServerRetryable, "forced resend rejected by origin")
	}

	return r.queue.MarkDone(operationID)
}

// Done implements conflict.Completer by marking the operation done without
// re-sending, used by the use_theirs resolution.
func (r *QueueResender) Done(operationID string) error {
	return r.queue.MarkDone(operationID)
}

// forcedBody merges the force field into the value's JSON object when
// forceField is configured; otherwise it returns value unchanged.
func (r *QueueResender) forcedBody(value json.RawMessage) ([]byte, error) {
	if r.forceField == "" {
		return value, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]json.RawMessage{}
	}
	obj[r.forceField] = json.RawMessage("true")
	return json.Marshal(obj)
}
