// Package stream implements the stream translator: parsing a
// phase-tagged SSE stream from the upstream and re-emitting it as the
// OpenAI streaming chunk format, plus a non-streaming aggregator.
package stream

import (
	"bufio"
	"io"
	"strings"
)

// doneSentinel is the terminal SSE payload both upstream and downstream
// use.
const doneSentinel = "[DONE]"

// Reader decodes an upstream SSE byte stream into raw JSON payloads. It
// is a thin wrapper over bufio.Scanner's line mode that returns each
// `data:` line as one payload; several `data:` lines within one event
// are returned separately, not joined. The upstream's frames are
// single-line `data: {...}` records in practice, mirroring how the
// reference client's SSE consumer reads upstream chat completions.
type Reader struct {
	scanner *bufio.Scanner
	done    bool
}

// NewReader wraps body (an upstream streaming response body) in a
// Reader.
func NewReader(body io.Reader) *Reader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next frame's raw JSON payload, or ok=false once the
// stream is exhausted or the [DONE] sentinel was seen. Lines that are
// not `data:` records (comments, blank keep-alives, other fields) are
// skipped rather than erroring, so the stream never aborts on a
// malformed or unrecognized line.
func (r *Reader) Next() (payload string, ok bool) {
	if r.done {
		return "", false
	}
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == doneSentinel {
			r.done = true
			return "", false
		}
		return data, true
	}
	r.done = true
	return "", false
}

// Err returns the scanner's terminal error, if any (a dropped connection
// surfaces here). The streaming orchestrator path answers a non-nil Err
// with a synthetic error chunk before [DONE]; the non-streaming path
// logs it and replies with what was aggregated so far.
func (r *Reader) Err() error {
	return r.scanner.Err()
}

// WriteChunk writes one OpenAI-format SSE frame: "data: <json>\n\n".
func WriteChunk(w io.Writer, jsonPayload []byte) error {
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(jsonPayload); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n\n"))
	return err
}

// WriteDone writes the terminal "data: [DONE]\n\n" frame.
func WriteDone(w io.Writer) error {
	_, err := w.Write([]byte("data: " + doneSentinel + "\n\n"))
	return err
}

// WriteKeepAlive writes an SSE comment frame used as a periodic
// keep-alive while the response is open.
func WriteKeepAlive(w io.Writer) error {
	_, err := w.Write([]byte(":\n\n"))
	return err
}
