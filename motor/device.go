package motor

import "time"

// DeviceHandle is the capability set a motor controller needs from the
// underlying transport-level device. Everything is in native units (integer
// encoder pulses, pulses per 100ms) and every configuration or sensor call is
// a blocking exchange bounded by the supplied timeout; a call that cannot
// complete in time returns a DeviceError.
//
// Implementations are not expected to be safe for concurrent callers. See
// the MotorController contract.
type DeviceHandle interface {
	// ConfigOutputRange sets the nominal (minimum applied) and peak output
	// in the forward and reverse directions, in the range [-1, 1].
	ConfigOutputRange(nominalFwd, nominalRev, peakFwd, peakRev float64, timeout time.Duration) error

	// ConfigNeutralDeadband sets the output band treated as neutral.
	ConfigNeutralDeadband(deadband float64, timeout time.Duration) error

	// ConfigStatusFramePeriod sets the reporting cadence of the primary
	// feedback status frame.
	ConfigStatusFramePeriod(period time.Duration, timeout time.Duration) error

	// ConfigFeedbackSensor selects the feedback device on the given slot.
	ConfigFeedbackSensor(kind SensorKind, slot int, timeout time.Duration) error

	// SelectProfileSlot makes the given gain slot active for the given
	// closed-loop index.
	SelectProfileSlot(slot, pidIdx int, timeout time.Duration) error

	// ConfigGains writes the four closed-loop gains of a slot.
	ConfigGains(slot int, p, i, d, f float64, timeout time.Duration) error

	// ConfigIntegralZone bounds the integral accumulator of a slot, in
	// native units.
	ConfigIntegralZone(slot, izone int, timeout time.Duration) error

	// ConfigMotionLimits writes the cruise velocity and acceleration caps
	// of the onboard motion profile, in native units per 100ms (and per
	// second, respectively).
	ConfigMotionLimits(cruiseVel, cruiseAcc int, timeout time.Duration) error

	// RawPosition reads the selected sensor position in native units.
	RawPosition(slot int, timeout time.Duration) (int, error)

	// SetRawPosition overwrites the selected sensor position.
	SetRawPosition(pos, slot int, timeout time.Duration) error

	// RawRate reads the selected sensor rate in native units per 100ms.
	RawRate(slot int, timeout time.Duration) (int, error)

	// ClosedLoopError reads the current loop error in native units.
	ClosedLoopError(slot int, timeout time.Duration) (int, error)

	// SetPercentOutput commands the device in percent-output mode, in the
	// range [-1, 1]. Unlike configuration this is fire-and-forget.
	SetPercentOutput(output float64) error
}
