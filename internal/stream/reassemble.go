package stream

import "strings"

// Reassembler accumulates raw streamed fragments into complete message
// units. Provider wire formats are line-oriented JSON-per-line streams, but
// delivery boundaries are arbitrary: one fragment may carry several units,
// or a single unit may arrive split across many fragments.
//
// A trailing remainder is taken as complete when it ends with a closing
// brace. This is a boundary heuristic, not a JSON scan: it can hold a unit
// back longer than necessary, but it never splits a well-formed object as
// long as the provider emits the object's closing brace as the final
// character of its text.
type Reassembler struct {
	pending string
}

// Feed appends fragment to the pending buffer and returns every unit that
// became complete, in arrival order. Units are the non-empty
// newline-separated segments before the trailing remainder; the remainder
// becomes the new pending buffer unless it ends in '}', in which case it is
// emitted as well.
func (r *Reassembler) Feed(fragment string) []string {
	r.pending += fragment

	segments := strings.Split(r.pending, "\n")
	r.pending = segments[len(segments)-1]

	var units []string
	for _, seg := range segments[:len(segments)-1] {
		if seg != "" {
			units = append(units, seg)
		}
	}
	if strings.HasSuffix(r.pending, "}") {
		units = append(units, r.pending)
		r.pending = ""
	}
	return units
}

// Pending returns the buffered prefix of a not-yet-complete unit. Whatever
// is still pending when the stream ends is dropped, never flushed: a unit
// that never reached its closing brace was truncated upstream and would not
// parse anyway.
func (r *Reassembler) Pending() string { return r.pending }

// Reset discards any buffered partial unit.
func (r *Reassembler) Reset() { r.pending = "" }
