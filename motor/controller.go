package motor

import (
	"math"
	"time"

	"github.com/openloop-robotics/godrivekit/config"
)

const (
	// DefaultTimeout is the per-call budget for every device exchange
	// issued by a MotorController.
	DefaultTimeout = 30 * time.Millisecond

	// primarySlot is the closed-loop index the feedback sensor and gain
	// selection are applied to.
	primarySlot = 0

	// defaultSlot is the gain slot used by the slot-less setup helpers.
	defaultSlot = 0

	statusFramePeriod = 10 * time.Millisecond
)

// MotorController binds a DeviceHandle to a ControllerProfile and translates
// between the device's native units and physical units. The scale factor is
// established once via SetDistancePerRevolution; until then distance and
// velocity reads degenerate to 0 and conversions return 0 (documented
// precondition, not a runtime fault).
//
// A MotorController assumes a single periodic caller. There is no internal
// locking; concurrent calls from multiple goroutines are not supported, and
// SetDistancePerRevolution must not race with any read or write that trusts
// the previous factor.
type MotorController struct {
	handle       DeviceHandle
	profile      ControllerProfile
	distPerPulse float64
}

// New constructs a MotorController and runs the one-time configuration
// sequence against the device. Construction fails outright on a config store
// miss or a device timeout; no partially configured controller is returned.
func New(handle DeviceHandle, profile ControllerProfile, store config.Store) (*MotorController, error) {
	m := &MotorController{
		handle:  handle,
		profile: profile,
	}

	if err := m.configure(store); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *MotorController) configure(store config.Store) error {
	// General configuration, applied to every profile.
	err := m.handle.ConfigOutputRange(0, 0, +1, -1, DefaultTimeout)
	if err != nil {
		return err
	}

	deadband, err := config.GetFloat(store, m.profile.ConfigKey+".neutralDeadband")
	if err != nil {
		return err
	}
	if err = m.handle.ConfigNeutralDeadband(deadband, DefaultTimeout); err != nil {
		return err
	}

	if !m.profile.ClosedLoop {
		return nil
	}

	// Closed loop configuration.
	if err = m.handle.ConfigStatusFramePeriod(statusFramePeriod, DefaultTimeout); err != nil {
		return err
	}

	if err = m.handle.ConfigFeedbackSensor(m.profile.FeedbackDevice, primarySlot, DefaultTimeout); err != nil {
		return err
	}

	if m.profile.Relative {
		// Relative sensors power up at an arbitrary count.
		return m.handle.SetRawPosition(0, primarySlot, DefaultTimeout)
	}

	return nil
}

// Profile returns the profile this controller was constructed with.
func (m *MotorController) Profile() ControllerProfile {
	return m.profile
}

// SetDistancePerRevolution establishes the scale factor between native units
// and physical units as dpr / upr. dpr is the physical distance (or angle)
// covered by one revolution of the output; upr is the sensor's native units
// per revolution, supplied empirically since it cannot be derived reliably
// from gear ratios. No-op on open-loop controllers, which have no meaningful
// distance.
func (m *MotorController) SetDistancePerRevolution(dpr float64, upr int) {
	if !m.profile.ClosedLoop {
		return
	}

	m.distPerPulse = dpr / float64(upr)
}

// DistancePerPulse returns the current scale factor; 0 until
// SetDistancePerRevolution is called.
func (m *MotorController) DistancePerPulse() float64 {
	return m.distPerPulse
}

// DistanceToPulses converts a physical distance into native position units.
func (m *MotorController) DistanceToPulses(distance float64) int {
	if m.distPerPulse == 0 {
		return 0
	}

	return int(math.Round(distance / m.distPerPulse))
}

// VelocityToPulses converts a physical velocity (units per second) into
// native rate units. The device reports and accepts rates per 100ms, hence
// the factor of 10.
func (m *MotorController) VelocityToPulses(velocity float64) int {
	if m.distPerPulse == 0 {
		return 0
	}

	return int(math.Round(velocity / (10 * m.distPerPulse)))
}

// PulsesToDistance converts native position units into physical distance.
func (m *MotorController) PulsesToDistance(raw int) float64 {
	return m.distPerPulse * float64(raw)
}

// PulsesToVelocity converts native rate units (per 100ms) into physical
// velocity per second.
func (m *MotorController) PulsesToVelocity(rawRate int) float64 {
	return 10 * m.distPerPulse * float64(rawRate)
}

// RawPosition reads the sensor position in native units. The device reports
// regardless of profile; the value is meaningless without a sensor attached.
func (m *MotorController) RawPosition() (int, error) {
	return m.handle.RawPosition(primarySlot, DefaultTimeout)
}

// RawRate reads the sensor rate in native units per 100ms.
func (m *MotorController) RawRate() (int, error) {
	return m.handle.RawRate(primarySlot, DefaultTimeout)
}

// Distance returns the physical distance covered by the sensor.
func (m *MotorController) Distance() (float64, error) {
	raw, err := m.RawPosition()
	if err != nil {
		return 0, err
	}

	return m.PulsesToDistance(raw), nil
}

// Velocity returns the physical velocity reported by the sensor.
func (m *MotorController) Velocity() (float64, error) {
	raw, err := m.RawRate()
	if err != nil {
		return 0, err
	}

	return m.PulsesToVelocity(raw), nil
}

// SetDistance overwrites the sensor position with the equivalent of the
// given physical distance.
func (m *MotorController) SetDistance(distance float64) error {
	return m.handle.SetRawPosition(m.DistanceToPulses(distance), primarySlot, DefaultTimeout)
}

// ClosedLoopError returns the current loop error scaled to physical units.
func (m *MotorController) ClosedLoopError() (float64, error) {
	raw, err := m.handle.ClosedLoopError(primarySlot, DefaultTimeout)
	if err != nil {
		return 0, err
	}

	return m.distPerPulse * float64(raw), nil
}

// ZeroSensor resets the sensor position to 0. Callable at any time, not just
// during configuration.
func (m *MotorController) ZeroSensor() error {
	return m.handle.SetRawPosition(0, primarySlot, DefaultTimeout)
}

// SetPercentOutput commands the motor directly in percent-output mode.
func (m *MotorController) SetPercentOutput(output float64) error {
	return m.handle.SetPercentOutput(output)
}

// SetupPIDF writes the closed-loop gains to the default slot.
func (m *MotorController) SetupPIDF(p, i, d, f float64) error {
	return m.SetupPIDFSlot(p, i, d, f, defaultSlot)
}

// SetupPIDFSlot selects the given gain slot and writes all four gains.
func (m *MotorController) SetupPIDFSlot(p, i, d, f float64, slot int) error {
	if err := m.handle.SelectProfileSlot(slot, primarySlot, DefaultTimeout); err != nil {
		return err
	}

	return m.handle.ConfigGains(slot, p, i, d, f, DefaultTimeout)
}

// SetupIZone bounds the integral accumulator on the default slot.
func (m *MotorController) SetupIZone(izone int) error {
	return m.SetupIZoneSlot(izone, defaultSlot)
}

// SetupIZoneSlot selects the given gain slot and writes the integral zone.
func (m *MotorController) SetupIZoneSlot(izone, slot int) error {
	if err := m.handle.SelectProfileSlot(slot, primarySlot, DefaultTimeout); err != nil {
		return err
	}

	return m.handle.ConfigIntegralZone(slot, izone, DefaultTimeout)
}

// SetMotionMagic configures the onboard motion profile limits. cruiseVel and
// cruiseAcc are in physical units per second (and per second squared) and are
// converted with the same per-100ms factor as velocity.
func (m *MotorController) SetMotionMagic(cruiseVel, cruiseAcc float64, slot int) error {
	if err := m.handle.SelectProfileSlot(slot, primarySlot, DefaultTimeout); err != nil {
		return err
	}

	return m.handle.ConfigMotionLimits(
		m.VelocityToPulses(cruiseVel),
		m.VelocityToPulses(cruiseAcc),
		DefaultTimeout,
	)
}
