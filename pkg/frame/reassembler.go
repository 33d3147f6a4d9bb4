package frame

import "bytes"

type entry struct {
	total   int
	buffers [][]byte
	seen    []bool
	count   int
}

// Reassembler accumulates frames keyed by message-id and emits a message
// once every index in [0, total) has arrived. It is intended to be owned by
// a single reader goroutine; it performs no internal locking.
type Reassembler struct {
	entries map[string]*entry
	emitted map[string]struct{}
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{
		entries: make(map[string]*entry),
		emitted: make(map[string]struct{}),
	}
}

// Feed processes one parsed frame. It returns the reassembled message and
// true once the last chunk of a message arrives; otherwise it returns
// (nil, false). Malformed combinations (mismatched total for an id,
// a duplicate index with a differing payload, or a frame arriving for an
// id whose message was already emitted) are discarded silently, matching
// the codec's failure semantics.
func (r *Reassembler) Feed(f Frame) ([]byte, bool) {
	if _, done := r.emitted[f.ID]; done {
		return nil, false
	}

	e, ok := r.entries[f.ID]
	if !ok {
		e = &entry{
			total:   f.Total,
			buffers: make([][]byte, f.Total),
			seen:    make([]bool, f.Total),
		}
		r.entries[f.ID] = e
	}

	if e.total != f.Total {
		delete(r.entries, f.ID)
		return nil, false
	}

	if e.seen[f.Index] {
		if !bytes.Equal(e.buffers[f.Index], f.Payload) {
			delete(r.entries, f.ID)
			return nil, false
		}
		return nil, false
	}

	e.buffers[f.Index] = f.Payload
	e.seen[f.Index] = true
	e.count++

	if e.count < e.total {
		return nil, false
	}

	var out bytes.Buffer
	for _, b := range e.buffers {
		out.Write(b)
	}
	delete(r.entries, f.ID)
	r.emitted[f.ID] = struct{}{}
	return out.Bytes(), true
}

// Pending reports the number of messages currently awaiting more chunks.
// Exposed for tests and diagnostics.
func (r *Reassembler) Pending() int {
	return len(r.entries)
}
