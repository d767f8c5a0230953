// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

// Package runner drives repeated refill-cycle simulations against one
// control box. Each cycle is an independent attempt: login, refill request,
// vehicle identification, image upload, metered fill, finish. Faults are
// contained at the cycle boundary so one bad attempt never stops the run.
package runner

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minetec/bowser/pkg/fascb"
)

// CycleState tracks how far a single cycle attempt got.
type CycleState int

const (
	StateIdle CycleState = iota
	StateRequested
	StateAwaitingVehicleInfo
	StateImageUploaded
	StateStarted
	StatePolling
	StateFinished
	StateInvalid
	StateAborted
)

func (s CycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequested:
		return "requested"
	case StateAwaitingVehicleInfo:
		return "awaiting_vehicle_info"
	case StateImageUploaded:
		return "image_uploaded"
	case StateStarted:
		return "started"
	case StatePolling:
		return "polling"
	case StateFinished:
		return "finished"
	case StateInvalid:
		return "invalid"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// CommandSink receives the mock sensor commands a cycle emits. The
// telemetry mailbox satisfies it.
type CommandSink interface {
	Put(cmd string)
}

// Config are the per-run simulation parameters.
type Config struct {
	NozzleID       string
	VehicleTag     string
	WorkingHours   int
	RefillLiters   int
	LiterIncrement int
	RefillCount    int
	ImagePath      string
}

// Timing holds every fixed delay in the state machine.
type Timing struct {
	ErrorBackoff   time.Duration // after a fault escapes a cycle body
	InvalidBackoff time.Duration // after a rejected refill request
	RequestSettle  time.Duration // between refill request and vehicle poll
	VehiclePoll    time.Duration // vehicle-info poll interval
	StartSettle    time.Duration // after refill start
	CommandDelay   time.Duration // between successive mock commands
	FinishCooldown time.Duration // after a completed fill
	CycleCooldown  time.Duration // between cycle attempts
}

// DefaultTiming matches the cadence the control box is tested against in
// the field.
func DefaultTiming() Timing {
	return Timing{
		ErrorBackoff:   5 * time.Second,
		InvalidBackoff: 30 * time.Second,
		RequestSettle:  2 * time.Second,
		VehiclePoll:    2 * time.Second,
		StartSettle:    2 * time.Second,
		CommandDelay:   time.Second,
		FinishCooldown: 10 * time.Second,
		CycleCooldown:  5 * time.Second,
	}
}

// Runner executes the configured number of refill cycles.
type Runner struct {
	Client *fascb.Client
	Sink   CommandSink
	Config Config
	Timing Timing
	Clock  Clock
	Rand   func(n int) int // returns [0, n)
}

// New creates a runner with production timing and randomness.
func New(client *fascb.Client, sink CommandSink, cfg Config) *Runner {
	return &Runner{
		Client: client,
		Sink:   sink,
		Config: cfg,
		Timing: DefaultTiming(),
		Clock:  realClock{},
		Rand:   rand.Intn,
	}
}

// Run executes Config.RefillCount cycles and returns when they are done or
// ctx is cancelled. Anything that goes wrong inside one cycle is logged,
// backed off, and charged against that cycle index only.
func (r *Runner) Run(ctx context.Context) error {
	for m := 0; m < r.Config.RefillCount; m++ {
		state, err := r.runCycle(ctx, m)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Int("cycle", m).Msg("cycle abandoned")
			if err := r.Clock.Sleep(ctx, r.Timing.ErrorBackoff); err != nil {
				return err
			}
			continue
		}

		log.Info().Int("cycle", m).Stringer("state", state).Msg("cycle done")
		if err := r.Clock.Sleep(ctx, r.Timing.CycleCooldown); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runCycle(ctx context.Context, index int) (CycleState, error) {
	state := StateIdle

	token, err := r.Client.Login(ctx)
	if err != nil {
		log.Warn().Err(err).Int("cycle", index).Msg("login failed")
		return StateAborted, nil
	}
	log.Info().Int("cycle", index).Msg("logged in")

	// Session bookkeeping: an invalid_token discriminant voids the token
	// for the rest of this attempt.
	rejected := func(resp *fascb.OpResponse) bool {
		if resp.Response == fascb.RespInvalidToken {
			token = ""
		}
		return resp.Invalid()
	}

	resp, err := r.Client.RefillRequest(ctx, token)
	if err != nil {
		return state, err
	}
	state = StateRequested
	if rejected(resp) {
		log.Warn().Int("cycle", index).Msg("refill request rejected, backing off")
		if err := r.Clock.Sleep(ctx, r.Timing.InvalidBackoff); err != nil {
			return state, err
		}
		return StateInvalid, nil
	}

	if err := r.Clock.Sleep(ctx, r.Timing.RequestSettle); err != nil {
		return state, err
	}

	// Wait for the control box to identify the vehicle, feeding it mock
	// RFID reads between polls.
	state = StateAwaitingVehicleInfo
	resp, err = r.pollOperation(ctx, r.Timing.VehiclePoll,
		func(ctx context.Context) (*fascb.OpResponse, error) {
			return r.Client.RequestVehicleInfo(ctx, token)
		},
		func(d string) bool {
			return d == fascb.RespVehicleInfo || d == fascb.RespInvalid || d == fascb.RespInvalidToken
		},
		func(*fascb.OpResponse) (bool, error) {
			r.Sink.Put(fascb.RFIDGetCommand(r.Config.NozzleID, r.Config.VehicleTag))
			return false, nil
		})
	if err != nil {
		return state, err
	}
	if rejected(resp) {
		return StateInvalid, nil
	}

	if err := r.Client.UploadImage(ctx, r.Config.ImagePath); err != nil {
		log.Warn().Err(err).Msg("image upload failed")
	}
	state = StateImageUploaded

	if _, err := r.Client.RefillStart(ctx, token, r.Config.WorkingHours); err != nil {
		return state, err
	}
	state = StateStarted
	if err := r.Clock.Sleep(ctx, r.Timing.StartSettle); err != nil {
		return state, err
	}

	meter := fascb.NewMeter(r.Config.RefillLiters, r.Config.LiterIncrement,
		r.Rand(fascb.RandomPulseBound(r.Config.LiterIncrement)))
	log.Info().Int("cycle", index).Int("target", meter.Max()).Msg("metered fill started")

	// Poll the fill, pushing a meter reading and an RFID match each pass.
	// The meter decides when the fill is done; the control box decides
	// when it is dead.
	state = StatePolling
	finished := false
	resp, err = r.pollOperation(ctx, 0,
		func(ctx context.Context) (*fascb.OpResponse, error) {
			return r.Client.QueryRefillParams(ctx, token)
		},
		func(d string) bool {
			return d == fascb.RespInvalid || d == fascb.RespInvalidToken
		},
		func(*fascb.OpResponse) (bool, error) {
			if err := r.Clock.Sleep(ctx, r.Timing.CommandDelay); err != nil {
				return false, err
			}
			r.Sink.Put(fascb.MeterReadCommand(meter.Value()))
			if err := r.Clock.Sleep(ctx, r.Timing.CommandDelay); err != nil {
				return false, err
			}
			r.Sink.Put(fascb.RFIDMatchCommand(r.Config.NozzleID))

			meter.Advance()
			if !meter.Last() {
				return false, nil
			}
			if _, err := r.Client.EndRefill(ctx, token); err != nil {
				return false, err
			}
			finished = true
			return true, nil
		})
	if err != nil {
		return state, err
	}
	if !finished {
		rejected(resp)
		return StateInvalid, nil
	}

	log.Info().Int("cycle", index).Msg("refill ended")
	if err := r.Clock.Sleep(ctx, r.Timing.FinishCooldown); err != nil {
		return state, err
	}
	return StateFinished, nil
}

// pollOperation calls query until the response discriminant satisfies
// terminal, running hook after every non-terminal response. A hook
// returning true ends the loop with the last response.
func (r *Runner) pollOperation(ctx context.Context, interval time.Duration,
	query func(context.Context) (*fascb.OpResponse, error),
	terminal func(string) bool,
	hook func(*fascb.OpResponse) (bool, error),
) (*fascb.OpResponse, error) {
	for {
		resp, err := query(ctx)
		if err != nil {
			return nil, err
		}
		if terminal(resp.Response) {
			return resp, nil
		}
		if hook != nil {
			done, err := hook(resp)
			if err != nil {
				return nil, err
			}
			if done {
				return resp, nil
			}
		}
		if interval > 0 {
			if err := r.Clock.Sleep(ctx, interval); err != nil {
				return nil, err
			}
		}
	}
}
