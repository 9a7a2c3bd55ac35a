package control

// Kind enumerates the concrete control shapes. The set is closed:
// generation dispatches through a per-kind function table instead of an
// open subclass hierarchy.
type Kind int

const (
	// KindCustom marks a control cast from an existing transform. It
	// carries no generator and cannot Create.
	KindCustom Kind = iota
	KindCircle
	KindSquare
	KindCross
	KindArrow
	KindTriangle
	KindHalfCircle
	KindText
	KindPin
	KindPinDouble
	KindSphere
	KindButton
	KindOrient
	KindCube
	KindCubeFK
	KindGear
	KindRing
	KindRingSphere
	KindPyramid
	KindSlider
	KindOsipa
)

func (k Kind) String() string {
	switch k {
	case KindCustom:
		return "custom"
	case KindCircle:
		return "circle"
	case KindSquare:
		return "square"
	case KindCross:
		return "cross"
	case KindArrow:
		return "arrow"
	case KindTriangle:
		return "triangle"
	case KindHalfCircle:
		return "halfCircle"
	case KindText:
		return "text"
	case KindPin:
		return "pin"
	case KindPinDouble:
		return "pinDouble"
	case KindSphere:
		return "sphere"
	case KindButton:
		return "button"
	case KindOrient:
		return "orient"
	case KindCube:
		return "cube"
	case KindCubeFK:
		return "cubeFK"
	case KindGear:
		return "gear"
	case KindRing:
		return "ring"
	case KindRingSphere:
		return "ringSphere"
	case KindPyramid:
		return "pyramid"
	case KindSlider:
		return "slider"
	case KindOsipa:
		return "osipa"
	default:
		return "unknown"
	}
}

// ColorIndex is the discrete display palette.
type ColorIndex int

const (
	Red     ColorIndex = 13
	Blue    ColorIndex = 6
	Yellow  ColorIndex = 22
	Green   ColorIndex = 14
	Purple  ColorIndex = 9
	Cyan    ColorIndex = 18
	Magenta ColorIndex = 31
	White   ColorIndex = 16
	Black   ColorIndex = 1
)

// ColorValue is the result of querying a control's color. Exactly one
// representation is active at a time.
type ColorValue struct {
	RGB    bool
	Index  ColorIndex
	Values [3]float64
}

// Axis names a world axis for mirroring.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "unknown"
	}
}
