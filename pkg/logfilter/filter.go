// Package logfilter admits only structurally valid JSON-RPC 2.0 records
// from a byte stream that interleaves JSON-RPC traffic with arbitrary log
// lines written by a child process onto the same pipe.
package logfilter

import (
	"bytes"
	"encoding/json"
)

// Mode selects how the filter treats a line.
type Mode int

const (
	// Enabled admits only records that pass the JSON-RPC 2.0 decision rule.
	Enabled Mode = iota
	// Disabled passes all input through unfiltered.
	Disabled
)

// Filter decides, one line at a time, whether a record is a well-formed
// JSON-RPC 2.0 message.
type Filter struct {
	mode Mode
}

// New returns a Filter in the given mode.
func New(mode Mode) *Filter {
	return &Filter{mode: mode}
}

// Admit applies the decision rule to line (without its trailing newline)
// and returns the line verbatim and true if it is admitted.
//
// Decision rule:
//  1. Trim whitespace; reject if empty.
//  2. Parse as JSON; reject on parse error.
//  3. Require the top-level value to be an object containing "jsonrpc":"2.0".
//  4. Require at least one of: method, result, error.
//  5. Admit the original bytes verbatim on success.
func (f *Filter) Admit(line []byte) ([]byte, bool) {
	if f.mode == Disabled {
		return line, true
	}

	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, false
	}

	var record struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  json.RawMessage `json:"method"`
		Result  json.RawMessage `json:"result"`
		Error   json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, false
	}

	if record.JSONRPC != "2.0" {
		return nil, false
	}

	if record.Method == nil && record.Result == nil && record.Error == nil {
		return nil, false
	}

	return line, true
}
