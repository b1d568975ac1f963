package transit

import (
	"context"
	"fmt"

	"github.com/mybus/backend-go/internal/location"
	"github.com/mybus/backend-go/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type State string

const (
	StateIdle                 State = "Idle"
	StateRequestingPermission State = "RequestingPermission"
	StateFetching             State = "Fetching"
	StateDecoding             State = "Decoding"
	StatePermissionDenied     State = "PermissionDenied"
	StateNetworkError         State = "NetworkError"
	StateNoStationsAvailable  State = "NoStationsAvailable"
	StateDecodeError          State = "DecodeError"
	StateReady                State = "Ready"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	switch s {
	case StatePermissionDenied, StateNetworkError, StateNoStationsAvailable, StateDecodeError, StateReady:
		return true
	}
	return false
}

// FailureRecorder keeps the raw text of responses that could not be decoded.
type FailureRecorder interface {
	RecordDecodeFailure(ctx context.Context, coords models.Coordinates, raw string) error
}

// Result is the outcome of one run. Stations is only set when State is
// StateReady; Err is set for every other terminal state.
type Result struct {
	State       State
	Coordinates *models.Coordinates
	Stations    []models.StationRecord
	Err         error
}

// Pipeline runs location -> fetch -> decode once. Build a new one per screen
// activation or request.
type Pipeline struct {
	locator  location.Provider
	fetcher  StationFetcher
	decoder  ResponseDecoder
	recorder FailureRecorder
	observer func(State)
	state    State
}

type Option func(*Pipeline)

// WithStateObserver registers fn to be called on every transition, in order.
func WithStateObserver(fn func(State)) Option {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// WithFailureRecorder archives raw text of DecodeError runs.
func WithFailureRecorder(r FailureRecorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

func NewPipeline(locator location.Provider, fetcher StationFetcher, decoder ResponseDecoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		locator: locator,
		fetcher: fetcher,
		decoder: decoder,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) Run(ctx context.Context) Result {
	p.transition(StateRequestingPermission)

	status, err := p.locator.RequestPermission(ctx)
	if err != nil {
		return p.fail(StatePermissionDenied, nil, NewPermissionDeniedError(fmt.Errorf("requesting permission: %w", err)))
	}
	if status != location.PermissionGranted {
		return p.fail(StatePermissionDenied, nil, NewPermissionDeniedError(nil))
	}

	coords, err := p.locator.CurrentPosition(ctx)
	if err != nil {
		return p.fail(StatePermissionDenied, nil, NewPermissionDeniedError(fmt.Errorf("getting position: %w", err)))
	}
	if err := coords.Validate(); err != nil {
		return p.fail(StatePermissionDenied, nil, NewPermissionDeniedError(err))
	}

	p.transition(StateFetching)
	raw, err := p.fetcher.Fetch(ctx, coords)
	if err != nil {
		if !IsKind(err, KindNetworkError) {
			err = NewNetworkError(0, err)
		}
		return p.fail(StateNetworkError, &coords, err)
	}

	p.transition(StateDecoding)
	stations, err := p.decoder.Decode(raw)
	if err != nil {
		switch {
		case IsKind(err, KindNoStationsAvailable):
			return p.fail(StateNoStationsAvailable, &coords, err)
		case IsKind(err, KindDecodeError):
			p.recordFailure(ctx, coords, raw)
			return p.fail(StateDecodeError, &coords, err)
		default:
			p.recordFailure(ctx, coords, raw)
			return p.fail(StateDecodeError, &coords, NewDecodeError(raw, err))
		}
	}

	p.transition(StateReady)
	log.Info().Int("station_count", len(stations)).Stringer("coords", coords).Msg("Nearby stations ready")

	return Result{
		State:       StateReady,
		Coordinates: &coords,
		Stations:    stations,
	}
}

func (p *Pipeline) fail(state State, coords *models.Coordinates, err error) Result {
	p.transition(state)

	level := zerolog.WarnLevel
	if state == StateNoStationsAvailable {
		level = zerolog.InfoLevel
	}
	log.WithLevel(level).Err(err).Str("state", string(state)).Msg("Nearby stations pipeline stopped")

	return Result{
		State:       state,
		Coordinates: coords,
		Err:         err,
	}
}

func (p *Pipeline) recordFailure(ctx context.Context, coords models.Coordinates, raw string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordDecodeFailure(ctx, coords, raw); err != nil {
		log.Error().Err(err).Msg("Failed to archive undecodable response")
	}
}

func (p *Pipeline) transition(next State) {
	log.Debug().Str("from", string(p.state)).Str("to", string(next)).Msg("Pipeline transition")
	p.state = next
	if p.observer != nil {
		p.observer(next)
	}
}
