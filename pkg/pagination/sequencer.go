package pagination

import (
	"errors"
	"fmt"
)

// ErrStaleResponse is returned for a response to a page request that a newer
// request has superseded.
var ErrStaleResponse = errors.New("stale page response")

// Request identifies one page request.
type Request struct {
	// Seq increases with every request issued by a Sequencer
	Seq uint64
	// Number is the 1-based page number
	Number int
	// Size is the page size
	Size int
}

// Sequencer stamps page requests so that only the latest one is applied.
// It is not safe for concurrent use; callers serialise access.
type Sequencer struct {
	latest uint64
}

// NewSequencer returns a sequencer with no outstanding request.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Next issues a request that supersedes every earlier one.
func (s *Sequencer) Next(page, size int) Request {
	s.latest++
	return Request{Seq: s.latest, Number: page, Size: size}
}

// Latest returns the sequence number of the most recent request, 0 if none.
func (s *Sequencer) Latest() uint64 {
	return s.latest
}

// Accept returns ErrStaleResponse unless req is the most recent request.
func (s *Sequencer) Accept(req Request) error {
	if req.Seq != s.latest {
		return fmt.Errorf("%w: page %d seq %d, latest %d", ErrStaleResponse, req.Number, req.Seq, s.latest)
	}
	return nil
}
