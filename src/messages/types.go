package messages

import (
	"screen-grab/src/config"
	"screen-grab/src/export"
	"screen-grab/src/session"
)

// Message is the base interface for all input events delivered to the loop
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypePointerDown    = "PointerDown"
	TypePointerMove    = "PointerMove"
	TypePointerDrag    = "PointerDrag"
	TypePointerUp      = "PointerUp"
	TypeScreenChange   = "ScreenChange"
	TypeModeChange     = "ModeChange"
	TypeCaptureRequest = "CaptureRequest"
	TypeConfirmCrop    = "ConfirmCrop"
	TypeExportRequest  = "ExportRequest"
	TypeCopyRequest    = "CopyRequest"
	TypeConfigChanged  = "ConfigChanged"
	TypeSync           = "Sync"
	TypeDieNow         = "DIENOW"
)

// PointerDown - button pressed at (X, Y) in view coordinates
type PointerDown struct {
	X, Y float64
}

func (m PointerDown) Type() string { return TypePointerDown }

// PointerMove - pointer moved to absolute position (X, Y)
type PointerMove struct {
	X, Y float64
}

func (m PointerMove) Type() string { return TypePointerMove }

// PointerDrag - pointer moved by (DX, DY) since the previous event
type PointerDrag struct {
	DX, DY float64
}

func (m PointerDrag) Type() string { return TypePointerDrag }

// PointerUp - button released at (X, Y)
type PointerUp struct {
	X, Y float64
}

func (m PointerUp) Type() string { return TypePointerUp }

// ScreenChange - user picked another display
type ScreenChange struct {
	Index int
}

func (m ScreenChange) Type() string { return TypeScreenChange }

// ModeChange - user switched between main and cropping views
type ModeChange struct {
	Mode session.Mode
}

func (m ModeChange) Type() string { return TypeModeChange }

// CaptureRequest - capture the selected screen and start cropping
type CaptureRequest struct{}

func (m CaptureRequest) Type() string { return TypeCaptureRequest }

// ConfirmCrop - accept the current selection as the definitive image
type ConfirmCrop struct{}

func (m ConfirmCrop) Type() string { return TypeConfirmCrop }

// ExportRequest - write the current image or selection to disk
type ExportRequest struct {
	Format           export.Format
	Path             string // empty = fresh name in the save folder
	UseDefaultFormat bool   // ignore Format and use the configured one
}

func (m ExportRequest) Type() string { return TypeExportRequest }

// CopyRequest - put the current image or selection on the clipboard
type CopyRequest struct{}

func (m CopyRequest) Type() string { return TypeCopyRequest }

// ConfigChanged - sent by the config watcher after a successful reload
type ConfigChanged struct {
	Config *config.Config
}

func (m ConfigChanged) Type() string { return TypeConfigChanged }

// Sync - closed by the loop once every earlier message has been handled
type Sync struct {
	Done chan struct{}
}

func (m Sync) Type() string { return TypeSync }

// DIENOW - stop the loop immediately
type DIENOW struct{}

func (m DIENOW) Type() string { return TypeDieNow }
