package game

import (
	"time"

	"github.com/The1Divider/Bathbot/domain"
)

// Signal is an external control message for a running session loop.
type Signal int

const (
	SignalStop Signal = iota
	SignalRestart
)

// Setup is the configuration of a session before its loop starts.
type Setup struct {
	Owner      string
	Included   domain.Tags
	Excluded   domain.Tags
	Difficulty domain.Difficulty
	Effects    domain.Effects
}

type imageReply struct {
	data []byte
	err  error
}

type imageRequest struct {
	reply chan imageReply
}

type hintRequest struct {
	reply chan string
}

// Handle lets external callers talk to a running session loop. Control
// signals are best effort: if the loop already exited they are dropped.
// Image and hint reads are bounded so a caller never blocks indefinitely
// behind an unresponsive loop.
type Handle struct {
	ctrl     chan Signal
	imgReqs  chan imageRequest
	hintReqs chan hintRequest
	timeout  time.Duration
}

func newHandle(timeout time.Duration) *Handle {
	return &Handle{
		ctrl:     make(chan Signal, 8),
		imgReqs:  make(chan imageRequest),
		hintReqs: make(chan hintRequest),
		timeout:  timeout,
	}
}

// Stop asks the loop to resolve the current round and terminate.
func (h *Handle) Stop() {
	select {
	case h.ctrl <- SignalStop:
	default:
	}
}

// Restart asks the loop to resolve the current round without a winner and
// move on to the next one.
func (h *Handle) Restart() {
	select {
	case h.ctrl <- SignalRestart:
	default:
	}
}

// CurrentImage enlarges the reveal by one step and returns the resulting
// image. Repeat calls at the reveal cap return identical bytes.
func (h *Handle) CurrentImage() ([]byte, error) {
	req := imageRequest{reply: make(chan imageReply, 1)}

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	select {
	case h.imgReqs <- req:
	case <-timer.C:
		return nil, domain.ErrRequestTimeout
	}

	select {
	case rep := <-req.reply:
		return rep.data, rep.err
	case <-timer.C:
		return nil, domain.ErrRequestTimeout
	}
}

// Hint returns the next hint for the current round's answer.
func (h *Handle) Hint() (string, error) {
	req := hintRequest{reply: make(chan string, 1)}

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	select {
	case h.hintReqs <- req:
	case <-timer.C:
		return "", domain.ErrRequestTimeout
	}

	select {
	case hint := <-req.reply:
		return hint, nil
	case <-timer.C:
		return "", domain.ErrRequestTimeout
	}
}
