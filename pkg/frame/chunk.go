// Package frame implements the length-agnostic chunking/reassembly codec
// that carries arbitrarily large JSON-RPC payloads over byte-oriented pipes
// whose atomic write boundary is unreliable past ~64 KB.
package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxPayload is the maximum payload size of a single frame, in bytes.
// Header overhead is bounded at ~40 bytes, keeping a full frame under 64 KiB.
const MaxPayload = 60 * 1024

// Chunk splits msg into one or more frames, each no larger than MaxPayload
// bytes of payload, sharing id. Frames are returned in order; a caller that
// writes them in the returned order preserves ordering on the wire.
//
// An empty message still produces exactly one frame with an empty payload
// and total=1.
func Chunk(id string, msg []byte) []string {
	total := len(msg) / MaxPayload
	if len(msg)%MaxPayload != 0 || len(msg) == 0 {
		total++
	}

	frames := make([]string, 0, total)
	for i := 0; i < total; i++ {
		start := i * MaxPayload
		end := start + MaxPayload
		if end > len(msg) {
			end = len(msg)
		}
		frames = append(frames, Format(id, i, total, msg[start:end]))
	}
	return frames
}

// Format renders a single frame: "{id}:{index}:{total}:{payload}\n".
func Format(id string, index, total int, payload []byte) string {
	var b strings.Builder
	b.WriteString(id)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(index))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(total))
	b.WriteByte(':')
	b.Write(payload)
	b.WriteByte('\n')
	return b.String()
}

// Frame is a single parsed chunk of a (possibly multi-chunk) message.
type Frame struct {
	ID      string
	Index   int
	Total   int
	Payload []byte
}

// Parse splits a single newline-trimmed line into its header fields and
// payload. Only the first three colons (from the start) are treated as
// header separators, so payload bytes never need escaping.
//
// Parse returns an error for anything that doesn't look like a frame:
// too few header fields, a non-numeric index/total, an index outside
// [0, total), or total == 0. Callers forward such lines to the log filter
// as non-frame content, per the framing codec's failure semantics.
func Parse(line []byte) (Frame, error) {
	s := string(line)

	firstColon := strings.IndexByte(s, ':')
	if firstColon < 0 {
		return Frame{}, fmt.Errorf("frame: no header separators")
	}
	secondColon := strings.IndexByte(s[firstColon+1:], ':')
	if secondColon < 0 {
		return Frame{}, fmt.Errorf("frame: missing chunk-total field")
	}
	secondColon += firstColon + 1
	thirdColon := strings.IndexByte(s[secondColon+1:], ':')
	if thirdColon < 0 {
		return Frame{}, fmt.Errorf("frame: missing payload separator")
	}
	thirdColon += secondColon + 1

	id := s[:firstColon]
	if id == "" {
		return Frame{}, fmt.Errorf("frame: empty message-id")
	}

	index, err := strconv.Atoi(s[firstColon+1 : secondColon])
	if err != nil {
		return Frame{}, fmt.Errorf("frame: invalid chunk-index: %w", err)
	}
	total, err := strconv.Atoi(s[secondColon+1 : thirdColon])
	if err != nil {
		return Frame{}, fmt.Errorf("frame: invalid chunk-total: %w", err)
	}
	if total == 0 {
		return Frame{}, fmt.Errorf("frame: chunk-total is zero")
	}
	if index < 0 || index >= total {
		return Frame{}, fmt.Errorf("frame: index %d out of range [0, %d)", index, total)
	}

	payload := s[thirdColon+1:]
	return Frame{ID: id, Index: index, Total: total, Payload: []byte(payload)}, nil
}
