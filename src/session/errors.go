package session

import (
	"context"
	"errors"

	"screen-grab/src/export"
	"screen-grab/src/screenshot"
)

var (
	// ErrNoImage is returned when an operation needs a captured image and none exists yet.
	ErrNoImage = errors.New("no captured image")
	// ErrNotCropping is returned by operations that only make sense while cropping.
	ErrNotCropping = errors.New("not in cropping mode")
	// ErrBusy is returned when a capture or export is already in flight.
	ErrBusy = errors.New("another capture or export is in progress")
)

// Category groups errors the way they are shown to the user.
type Category string

const (
	CategoryScreen    Category = "screen"
	CategoryCapture   Category = "capture"
	CategorySelection Category = "selection"
	CategoryEncode    Category = "encode"
	CategoryWrite     Category = "write"
	CategoryBusy      Category = "busy"
	CategoryTimeout   Category = "timeout"
	CategoryUnknown   Category = "unknown"
)

// Failure is a reportable error.
type Failure struct {
	Category Category
	Message  string
	Err      error
}

func (f Failure) Error() string { return string(f.Category) + ": " + f.Message }

func (f Failure) Unwrap() error { return f.Err }

// Describe classifies err. A nil error yields the zero Failure.
func Describe(err error) Failure {
	if err == nil {
		return Failure{}
	}
	var f Failure
	if errors.As(err, &f) {
		return f
	}
	return Failure{Category: categoryOf(err), Message: err.Error(), Err: err}
}

func categoryOf(err error) Category {
	switch {
	case errors.Is(err, ErrBusy):
		return CategoryBusy
	case errors.Is(err, screenshot.ErrInvalidScreen):
		return CategoryScreen
	case errors.Is(err, screenshot.ErrCapture):
		return CategoryCapture
	case errors.Is(err, export.ErrEmptySelection),
		errors.Is(err, ErrNoImage),
		errors.Is(err, ErrNotCropping):
		return CategorySelection
	case errors.Is(err, export.ErrEncode):
		return CategoryEncode
	case errors.Is(err, export.ErrWrite):
		return CategoryWrite
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CategoryTimeout
	default:
		return CategoryUnknown
	}
}
