package motor

// SensorKind identifies the feedback device wired into a motor controller's
// primary feedback port.
type SensorKind int

const (
	SensorNone SensorKind = iota
	SensorQuadEncoder
	SensorMagEncoderRelative
	SensorMagEncoderAbsolute
	SensorAnalog
)

func (k SensorKind) String() string {
	switch k {
	case SensorQuadEncoder:
		return "quadrature encoder"
	case SensorMagEncoderRelative:
		return "mag encoder (relative)"
	case SensorMagEncoderAbsolute:
		return "mag encoder (absolute)"
	case SensorAnalog:
		return "analog"
	default:
		return "none"
	}
}

// ControllerProfile describes how a physical motor is wired and configured:
// whether it runs closed-loop, which feedback device it carries, whether that
// device needs zeroing at power-up, and which config store prefix holds its
// tunables. Use NewOpenLoopProfile or NewClosedLoopProfile; a profile is
// either fully open-loop or fully closed-loop with a present sensor kind.
type ControllerProfile struct {
	ClosedLoop     bool
	Relative       bool // meaningful only when ClosedLoop
	FeedbackDevice SensorKind
	ConfigKey      string
}

func NewOpenLoopProfile(configKey string) ControllerProfile {
	return ControllerProfile{ConfigKey: configKey}
}

func NewClosedLoopProfile(configKey string, device SensorKind, relative bool) (ControllerProfile, error) {
	if device == SensorNone {
		return ControllerProfile{}, MissingFeedbackDeviceError{ConfigKey: configKey}
	}

	return ControllerProfile{
		ClosedLoop:     true,
		Relative:       relative,
		FeedbackDevice: device,
		ConfigKey:      configKey,
	}, nil
}

// The standard set of profiles used across our mechanisms. Anything more
// exotic can be built through the constructors directly.
var (
	ProfileRegular = ControllerProfile{
		ConfigKey: "regular",
	}

	ProfileMagEncoder = ControllerProfile{
		ClosedLoop:     true,
		Relative:       true,
		FeedbackDevice: SensorMagEncoderRelative,
		ConfigKey:      "magEncoder",
	}

	ProfileMagEncoderAbsolute = ControllerProfile{
		ClosedLoop:     true,
		FeedbackDevice: SensorMagEncoderAbsolute,
		ConfigKey:      "magEncoderAbs",
	}

	ProfileQuadEncoder = ControllerProfile{
		ClosedLoop:     true,
		Relative:       true,
		FeedbackDevice: SensorQuadEncoder,
		ConfigKey:      "quad",
	}
)
