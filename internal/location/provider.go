package location

import (
	"context"
	"errors"

	"github.com/mybus/backend-go/internal/models"
)

type PermissionStatus string

const (
	PermissionUndetermined PermissionStatus = "undetermined"
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
)

// ErrNoFix is returned by CurrentPosition when no position is available.
var ErrNoFix = errors.New("no position fix available")

// Provider is the device location service. RequestPermission is always called
// before CurrentPosition.
type Provider interface {
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// StaticProvider serves a fix configured up front, e.g. from command line
// flags. A nil Fix means the user has not shared a location.
type StaticProvider struct {
	Fix *models.Coordinates
}

func NewStaticProvider(fix *models.Coordinates) *StaticProvider {
	return &StaticProvider{Fix: fix}
}

func (p *StaticProvider) RequestPermission(_ context.Context) (PermissionStatus, error) {
	if p.Fix == nil {
		return PermissionDenied, nil
	}
	return PermissionGranted, nil
}

func (p *StaticProvider) CurrentPosition(_ context.Context) (models.Coordinates, error) {
	if p.Fix == nil {
		return models.Coordinates{}, ErrNoFix
	}
	return *p.Fix, nil
}

// Funcs adapts plain functions to Provider. A nil function grants permission
// or reports ErrNoFix respectively.
type Funcs struct {
	RequestPermissionFn func(ctx context.Context) (PermissionStatus, error)
	CurrentPositionFn   func(ctx context.Context) (models.Coordinates, error)
}

func (f Funcs) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	if f.RequestPermissionFn != nil {
		return f.RequestPermissionFn(ctx)
	}
	return PermissionGranted, nil
}

func (f Funcs) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	if f.CurrentPositionFn != nil {
		return f.CurrentPositionFn(ctx)
	}
	return models.Coordinates{}, ErrNoFix
}
