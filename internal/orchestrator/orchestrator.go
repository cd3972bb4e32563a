// Package orchestrator implements the execution orchestrator: the
// per-request lifecycle of acquiring an identity, translating and
// dispatching a request, detecting upstream failure, retrying with
// alternate identities, and propagating client cancellation — all while
// preserving well-formed SSE even when failure happens after bytes have
// already reached the client.
//
// The streaming lifecycle (SSE header setup, flusher detection, a single
// convergent completion path) is adapted from a reference generic gin
// streaming-context helper, specialized here from a multi-hook generic
// event processor down to this package's one-shot retry/synthetic-error
// flow.
package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/qwenbridge/internal/apierr"
	"github.com/tingly-dev/qwenbridge/internal/identity"
	"github.com/tingly-dev/qwenbridge/internal/openai"
	"github.com/tingly-dev/qwenbridge/internal/stream"
	"github.com/tingly-dev/qwenbridge/internal/translate"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

const (
	maxRetries     = 2
	keepAliveEvery = 15 * time.Second
)

// Orchestrator drives one completion end-to-end.
type Orchestrator struct {
	Pool       *identity.Pool
	Upstream   *upstream.Client
	Translator *translate.Translator

	// LegacyCredentials is used when the pool has no identities at all
	// (e.g. a single static credential configured outside the pool).
	LegacyCredentials *translate.Credentials
}

// Execute drives one OpenAI chat completion request to completion,
// writing either an SSE stream or a single JSON completion to c,
// depending on req.WantsStream(). When override is non-nil (client-mode
// credentials supplied on the request itself), the identity pool is
// bypassed entirely: no acquisition, no health tracking, and retries
// reuse the same credentials since there is no alternate identity to
// rotate to.
func (o *Orchestrator) Execute(c *gin.Context, req openai.Request, override *translate.Credentials) {
	requestID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		var id *identity.Identity
		var creds translate.Credentials
		switch {
		case override != nil:
			creds = *override
		case o.Pool != nil:
			id = o.Pool.Acquire()
			if id != nil {
				creds = translate.Credentials{Token: id.Token, Cookie: id.Cookie}
			} else if o.LegacyCredentials != nil {
				creds = *o.LegacyCredentials
			} else {
				o.writeError(c, apierr.New(apierr.KindUpstreamUnavailable, "no selectable identity"), requestID)
				return
			}
		case o.LegacyCredentials != nil:
			creds = *o.LegacyCredentials
		default:
			o.writeError(c, apierr.New(apierr.KindUpstreamUnavailable, "no selectable identity"), requestID)
			return
		}

		result, err := o.Translator.Translate(c.Request.Context(), req, creds)
		if err != nil {
			var ae *apierr.Error
			if errors.As(err, &ae) && ae.Kind != apierr.KindBadRequest && id != nil {
				o.Pool.MarkFailure(id, classifyErr(err))
			}
			if attempt < maxRetries && isRetryable(err) {
				lastErr = err
				continue
			}
			o.writeError(c, err, requestID)
			return
		}

		resp, dispatchErr := o.Upstream.PostCompletion(c.Request.Context(), creds.Token, creds.Cookie, result.ChatID, requestID, result.UsedFallback, result.Request)
		if dispatchErr != nil {
			if id != nil {
				o.Pool.MarkFailure(id, classifyErr(dispatchErr))
			}
			if attempt < maxRetries && isRetryable(dispatchErr) {
				lastErr = dispatchErr
				continue
			}
			o.writeError(c, toAPIErr(dispatchErr), requestID)
			return
		}

		if id != nil {
			o.Pool.MarkSuccess(id)
		}

		if req.WantsStream() {
			o.streamResponse(c, resp, result.Request.Model)
		} else {
			o.nonStreamResponse(c, resp, result.Request.Model)
		}
		return
	}

	o.writeError(c, toAPIErr(lastErr), requestID)
}

func isRetryable(err error) bool {
	var statusErr *upstream.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Kind == apierr.KindUpstreamCreateChat || ae.Kind == apierr.KindUpstreamError
	}
	return true // transport error before any bytes flowed
}

func classifyErr(err error) identity.FailureSignal {
	var statusErr *upstream.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return identity.FailureSignal{StrongAuth: statusErr.IsAuthSignal()}
	}
	return identity.FailureSignal{}
}

func toAPIErr(err error) error {
	var statusErr *upstream.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return apierr.WithStatus(apierr.KindUpstreamError, "upstream returned an error", statusErr.Status)
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apierr.Wrap(apierr.KindUpstreamUnavailable, "upstream unreachable", err)
}

func (o *Orchestrator) writeError(c *gin.Context, err error, requestID string) {
	status, body := apierr.ToBody(err, requestID)
	c.JSON(status, body)
}

// streamResponse pipes the upstream SSE response through the stream
// translator to the client, with a keep-alive comment every
// keepAliveEvery (sent on that schedule whether or not other frames were
// written in between) and a single idempotent finish path covering upstream end/close,
// translator end, and client close.
func (o *Orchestrator) streamResponse(c *gin.Context, resp *http.Response, model string) {
	defer resp.Body.Close()

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, apierr.Body{Error: "streaming_unsupported"})
		return
	}

	var finishOnce sync.Once
	finish := func() {
		finishOnce.Do(func() {
			stream.WriteDone(c.Writer)
			flusher.Flush()
		})
	}
	defer finish()

	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	events := make(chan upstream.StreamEvent, 16)
	readErr := make(chan error, 1)
	go func() {
		defer close(events)
		r := stream.NewReader(resp.Body)
		for {
			payload, ok := r.Next()
			if !ok {
				readErr <- r.Err()
				return
			}
			events <- stream.ParseEvent(payload)
		}
	}()

	translator := stream.NewTranslator(model)
	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case <-keepAlive.C:
			stream.WriteKeepAlive(c.Writer)
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				var streamErr error
				select {
				case streamErr = <-readErr:
				default:
				}
				if streamErr != nil {
					logrus.WithError(streamErr).Warn("upstream stream ended with error")
					// WriteSyntheticError writes its own terminal [DONE]; consume
					// finishOnce first so the deferred finish() doesn't write a
					// second one (invariant 8: exactly one [DONE] per stream).
					finishOnce.Do(func() {})
					WriteSyntheticError(c.Writer, translator, streamErr.Error())
					return
				}
				for _, chunk := range translator.Finish("") {
					writeChunk(c.Writer, chunk)
				}
				flusher.Flush()
				return
			}
			if !ev.HasChoice {
				logrus.Warn("skipping upstream frame with no choice")
				continue
			}
			for _, chunk := range translator.Feed(ev) {
				writeChunk(c.Writer, chunk)
			}
			if ev.FinishReason != "" {
				for _, chunk := range translator.Finish(ev.FinishReason) {
					writeChunk(c.Writer, chunk)
				}
				flusher.Flush()
				return
			}
			flusher.Flush()
		}
	}
}

func writeChunk(w http.ResponseWriter, chunk openai.StreamChunk) {
	data, err := json.Marshal(chunk)
	if err != nil {
		return
	}
	stream.WriteChunk(w, data)
}

// nonStreamResponse collects the upstream SSE into a single completion
// and replies with the OpenAI completion JSON.
func (o *Orchestrator) nonStreamResponse(c *gin.Context, resp *http.Response, model string) {
	defer resp.Body.Close()

	agg := stream.NewAggregator(model)
	r := stream.NewReader(resp.Body)
	for {
		payload, ok := r.Next()
		if !ok {
			break
		}
		ev := stream.ParseEvent(payload)
		if !ev.HasChoice {
			logrus.Warn("skipping upstream frame with no choice")
			continue
		}
		agg.Feed(ev)
	}
	if err := r.Err(); err != nil {
		logrus.WithError(err).Warn("upstream stream ended with error during aggregation")
	}

	c.JSON(http.StatusOK, agg.Finish())
}

// WriteSyntheticError writes one synthetic SSE error chunk followed by
// [DONE], for the "bytes already flowed, cannot retry" failure path
// (§4.4 step 5, invariant 1, scenario S6). It takes the stream's own
// translator rather than building a fresh one so a role delta already
// sent earlier in the stream is never repeated (invariant 2).
func WriteSyntheticError(w http.ResponseWriter, translator *stream.Translator, message string) {
	for _, chunk := range translator.Feed(upstream.StreamEvent{Content: fmt.Sprintf("\n\n[error: %s]", message)}) {
		writeChunk(w, chunk)
	}
	for _, chunk := range translator.Finish("stop") {
		writeChunk(w, chunk)
	}
	stream.WriteDone(w)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
