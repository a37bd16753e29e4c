package event

import "fmt"

// InputSource identifies the device class an input event came from.
type InputSource int

const (
	SourceUnknown InputSource = iota
	SourceKeyboard
	SourceTouchscreen
	SourceMouse
	SourceStylus
	SourceGamepad
)

// KeyAction mirrors the platform key action codes.
type KeyAction int

const (
	KeyDown KeyAction = iota
	KeyUp
	KeyMultiple
)

// MotionAction mirrors the platform motion action codes.
type MotionAction int

const (
	MotionDown MotionAction = iota
	MotionUp
	MotionMove
	MotionCancel
	MotionOutside
	MotionPointerDown
	MotionPointerUp
	MotionHoverMove
	MotionScroll
)

// Axis is a motion axis identifier, numbered as the platform numbers them.
type Axis int32

const (
	AxisX        Axis = 0
	AxisY        Axis = 1
	AxisPressure Axis = 2
	AxisSize     Axis = 3
	AxisVScroll  Axis = 9
	AxisHScroll  Axis = 10
	AxisZ        Axis = 11
	AxisRX       Axis = 12
	AxisRY       Axis = 13
	AxisRZ       Axis = 14
	AxisHatX     Axis = 15
	AxisHatY     Axis = 16
	AxisLTrigger Axis = 17
	AxisRTrigger Axis = 18
	AxisWheel    Axis = 21
	AxisGas      Axis = 22
	AxisBrake    Axis = 23
)

var axisNames = map[Axis]string{
	AxisX:        "x",
	AxisY:        "y",
	AxisPressure: "pressure",
	AxisSize:     "size",
	AxisVScroll:  "vscroll",
	AxisHScroll:  "hscroll",
	AxisZ:        "z",
	AxisRX:       "rx",
	AxisRY:       "ry",
	AxisRZ:       "rz",
	AxisHatX:     "hat_x",
	AxisHatY:     "hat_y",
	AxisLTrigger: "ltrigger",
	AxisRTrigger: "rtrigger",
	AxisWheel:    "wheel",
	AxisGas:      "gas",
	AxisBrake:    "brake",
}

func (a Axis) String() string {
	if name, ok := axisNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Axis(%d)", int32(a))
}

// ParseAxis parses the String form of a named Axis.
func ParseAxis(s string) (Axis, error) {
	for a, name := range axisNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown motion axis %q", s)
}

// Pointer is one contact point of a motion event.
type Pointer struct {
	ID       int32
	X        float32
	Y        float32
	Pressure float32
}

// KeyEvent is a raw key record.
type KeyEvent struct {
	Action    KeyAction
	KeyCode   int32
	ScanCode  int32
	MetaState int32
	Repeat    int32
}

// MotionEvent is a raw motion record.
type MotionEvent struct {
	Action      MotionAction
	ActionIndex int32
	MetaState   int32
	Pointers    []Pointer
}

// InputEvent is either a key or a motion record. Exactly one of Key and
// Motion is non-nil.
type InputEvent struct {
	Source      InputSource
	DeviceID    int32
	EventTimeNs int64
	Key         *KeyEvent
	Motion      *MotionEvent
}

// IsKey reports whether e carries a key record.
func (e InputEvent) IsKey() bool { return e.Key != nil }

// IsMotion reports whether e carries a motion record.
func (e InputEvent) IsMotion() bool { return e.Motion != nil }

// NewKeyInput builds a key InputEvent.
func NewKeyInput(source InputSource, key KeyEvent) InputEvent {
	return InputEvent{Source: source, Key: &key}
}

// NewMotionInput builds a motion InputEvent. The pointer slice is copied.
func NewMotionInput(source InputSource, action MotionAction, pointers ...Pointer) InputEvent {
	ps := make([]Pointer, len(pointers))
	copy(ps, pointers)
	return InputEvent{
		Source: source,
		Motion: &MotionEvent{Action: action, Pointers: ps},
	}
}
