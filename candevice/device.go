package candevice

import (
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver"
	"github.com/openloop-robotics/godrivekit/canbus"
	"github.com/openloop-robotics/godrivekit/motor"
)

const (
	// FirmwareConstraint is the firmware range this driver knows how to
	// talk to.
	FirmwareConstraint = "~1.0.0"

	versionTimeout = time.Second
)

// Device drives one motor-controller node on a CAN bus and implements
// motor.DeviceHandle. Configuration calls are request/acknowledge exchanges
// bounded by the caller's timeout; percent output is streamed without an
// acknowledgement.
type Device struct {
	id   uint32
	bus  canbus.BusInterface
	lock sync.Mutex // serializes request/ack exchanges on rx
	rx   chan canbus.Msg
}

var _ motor.DeviceHandle = (*Device)(nil)

// New registers a listener for the node and gates on its firmware version:
// anything outside FirmwareConstraint is refused. A bare "DEV" build is let
// through for bench work.
func New(bus canbus.BusInterface, id uint32) (*Device, error) {
	d := &Device{
		id:  id,
		bus: bus,
		rx:  make(chan canbus.Msg, 8),
	}
	bus.AddListener(id, d.rx)

	resp, err := d.request(cmdVersion, nil, versionTimeout)
	if err != nil {
		return nil, err
	}

	versionString := string(resp.Data)
	if versionString == "DEV" {
		return d, nil
	}

	ver, err := semver.NewVersion(versionString)
	if err != nil {
		return nil, fmt.Errorf("node %d: unparseable firmware version %q", id, versionString)
	}

	constraint, err := semver.NewConstraint(FirmwareConstraint)
	if err != nil {
		return nil, err
	}

	if !constraint.Check(ver) {
		return nil, fmt.Errorf("unable to use node %d: firmware %s - require %s", id, versionString, FirmwareConstraint)
	}

	return d, nil
}

// request sends a command and waits for the node to acknowledge it by
// echoing the command word. Stale acknowledgements from earlier exchanges
// are drained and dropped. No retries; a missed ack within the timeout is a
// motor.DeviceError and the node may be in an undefined state.
func (d *Device) request(cmd uint16, data []byte, timeout time.Duration) (canbus.Msg, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	msg := canbus.Msg{ID: d.id, Cmd: cmd, Data: data}
	if err := d.bus.SendMsg(msg); err != nil {
		return canbus.Msg{}, err
	}

	deadline := time.After(timeout)
	for {
		select {
		case resp := <-d.rx:
			if resp.Cmd == cmd {
				return resp, nil
			}

		case <-deadline:
			return canbus.Msg{}, motor.DeviceError{Op: cmdName(cmd), Timeout: timeout}
		}
	}
}

func (d *Device) ConfigOutputRange(nominalFwd, nominalRev, peakFwd, peakRev float64, timeout time.Duration) error {
	_, err := d.request(cmdCfgNominalOutput, []byte{encodeOutput(nominalFwd), encodeOutput(nominalRev)}, timeout)
	if err != nil {
		return err
	}

	_, err = d.request(cmdCfgPeakOutput, []byte{encodeOutput(peakFwd), encodeOutput(peakRev)}, timeout)
	return err
}

func (d *Device) ConfigNeutralDeadband(deadband float64, timeout time.Duration) error {
	_, err := d.request(cmdCfgDeadband, encodeFloat(deadband), timeout)
	return err
}

func (d *Device) ConfigStatusFramePeriod(period time.Duration, timeout time.Duration) error {
	ms := period / time.Millisecond
	_, err := d.request(cmdCfgStatusPeriod, []byte{byte(ms), byte(ms >> 8)}, timeout)
	return err
}

func (d *Device) ConfigFeedbackSensor(kind motor.SensorKind, slot int, timeout time.Duration) error {
	code, ok := sensorCodes[kind]
	if !ok {
		return fmt.Errorf("node %d: no wire code for sensor kind %s", d.id, kind)
	}

	_, err := d.request(cmdCfgFeedback, []byte{byte(slot), code}, timeout)
	return err
}

func (d *Device) SelectProfileSlot(slot, pidIdx int, timeout time.Duration) error {
	_, err := d.request(cmdSelectSlot, []byte{byte(slot), byte(pidIdx)}, timeout)
	return err
}

func (d *Device) ConfigGains(slot int, p, i, dv, f float64, timeout time.Duration) error {
	gains := []struct {
		cmd   uint16
		value float64
	}{
		{cmdCfgKP, p},
		{cmdCfgKI, i},
		{cmdCfgKD, dv},
		{cmdCfgKF, f},
	}

	for _, g := range gains {
		data := append([]byte{byte(slot)}, encodeFloat(g.value)...)
		if _, err := d.request(g.cmd, data, timeout); err != nil {
			return err
		}
	}

	return nil
}

func (d *Device) ConfigIntegralZone(slot, izone int, timeout time.Duration) error {
	data := append([]byte{byte(slot)}, encodeInt32(izone)...)
	_, err := d.request(cmdCfgIZone, data, timeout)
	return err
}

func (d *Device) ConfigMotionLimits(cruiseVel, cruiseAcc int, timeout time.Duration) error {
	if _, err := d.request(cmdCfgMotionCruise, encodeInt32(cruiseVel), timeout); err != nil {
		return err
	}

	_, err := d.request(cmdCfgMotionAccel, encodeInt32(cruiseAcc), timeout)
	return err
}

func (d *Device) RawPosition(slot int, timeout time.Duration) (int, error) {
	resp, err := d.request(cmdGetPosition, []byte{byte(slot)}, timeout)
	if err != nil {
		return 0, err
	}

	return decodeInt32(resp.Data), nil
}

func (d *Device) SetRawPosition(pos, slot int, timeout time.Duration) error {
	data := append([]byte{byte(slot)}, encodeInt32(pos)...)
	_, err := d.request(cmdSetPosition, data, timeout)
	return err
}

func (d *Device) RawRate(slot int, timeout time.Duration) (int, error) {
	resp, err := d.request(cmdGetRate, []byte{byte(slot)}, timeout)
	if err != nil {
		return 0, err
	}

	return decodeInt32(resp.Data), nil
}

func (d *Device) ClosedLoopError(slot int, timeout time.Duration) (int, error) {
	resp, err := d.request(cmdGetLoopErr, []byte{byte(slot)}, timeout)
	if err != nil {
		return 0, err
	}

	return decodeInt32(resp.Data), nil
}

func (d *Device) SetPercentOutput(output float64) error {
	return d.bus.SendMsg(canbus.Msg{
		ID:   d.id,
		Cmd:  cmdPercentOutput,
		Data: encodeFloat(output),
	})
}
