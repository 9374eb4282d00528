package candevice

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/openloop-robotics/godrivekit/canbus"
	"github.com/openloop-robotics/godrivekit/motor"
)

const kTestTimeout = 20 * time.Millisecond

// testBus acknowledges every frame by echoing it back, substituting the
// firmware version string for version queries.
type testBus struct {
	txerr, rxecho bool
	txCount       int
	frames        []canbus.Msg
	version       string
	position      int
	listeners     map[uint32]chan canbus.Msg
}

func newTestBus() *testBus {
	return &testBus{
		rxecho:    true,
		version:   "1.0.3",
		listeners: make(map[uint32]chan canbus.Msg),
	}
}

func (t *testBus) AddListener(nodeID uint32, rx chan canbus.Msg) {
	t.listeners[nodeID] = rx
}

func (t *testBus) SendMsg(msg canbus.Msg) error {
	t.frames = append(t.frames, msg)
	t.txCount++
	if t.txerr {
		return errors.New("this is a simulated tx error")
	}

	if !t.rxecho {
		return nil
	}

	rx, ok := t.listeners[msg.ID]
	if !ok || rx == nil {
		return errors.New("unable to find listener")
	}

	resp := msg
	switch msg.Cmd {
	case cmdVersion:
		resp.Data = []byte(t.version)
	case cmdGetPosition, cmdGetRate, cmdGetLoopErr:
		resp.Data = encodeInt32(t.position)
	}
	rx <- resp

	return nil
}

func (t *testBus) lastTx() canbus.Msg {
	return t.frames[len(t.frames)-1]
}

func createTestDevice(t *testing.T) (*testBus, *Device) {
	bus := newTestBus()
	dev, err := New(bus, 0x2A)
	if err != nil {
		t.Fatal(err)
	}

	bus.frames = nil
	bus.txCount = 0
	return bus, dev
}

func TestFirmwareGate(t *testing.T) {
	Convey("a firmware version inside the constraint is accepted", t, func() {
		bus := newTestBus()
		bus.version = "1.0.7"

		dev, err := New(bus, 0x2A)
		So(err, ShouldBeNil)
		So(dev, ShouldNotBeNil)
		So(bus.lastTx().Cmd, ShouldEqual, cmdVersion)
	})

	Convey("a DEV build is let through", t, func() {
		bus := newTestBus()
		bus.version = "DEV"

		_, err := New(bus, 0x2A)
		So(err, ShouldBeNil)
	})

	Convey("an incompatible version is refused", t, func() {
		bus := newTestBus()
		bus.version = "2.0.0"

		_, err := New(bus, 0x2A)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "2.0.0")
	})

	Convey("garbage versions are refused", t, func() {
		bus := newTestBus()
		bus.version = "mystery"

		_, err := New(bus, 0x2A)
		So(err, ShouldNotBeNil)
	})
}

func TestRequestAck(t *testing.T) {
	Convey("a config call sends one frame and waits for the echo", t, func() {
		bus, dev := createTestDevice(t)

		err := dev.ConfigNeutralDeadband(0.04, kTestTimeout)
		So(err, ShouldBeNil)
		So(bus.txCount, ShouldEqual, 1)
		So(bus.lastTx().Cmd, ShouldEqual, cmdCfgDeadband)
	})

	Convey("a missing ack times out with a DeviceError and no retry", t, func() {
		bus, dev := createTestDevice(t)
		bus.rxecho = false

		err := dev.ConfigNeutralDeadband(0.04, kTestTimeout)
		So(err, ShouldHaveSameTypeAs, motor.DeviceError{})
		So(err.Error(), ShouldContainSubstring, "config neutral deadband")
		So(bus.txCount, ShouldEqual, 1)
	})

	Convey("stale acks from earlier exchanges are drained", t, func() {
		_, dev := createTestDevice(t)
		dev.rx <- canbus.Msg{ID: 0x2A, Cmd: cmdCfgKP}

		err := dev.ConfigNeutralDeadband(0.04, kTestTimeout)
		So(err, ShouldBeNil)
	})

	Convey("a tx error propagates directly", t, func() {
		bus, dev := createTestDevice(t)
		bus.txerr = true

		err := dev.ConfigNeutralDeadband(0.04, kTestTimeout)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "simulated")
	})
}

func TestDeviceCalls(t *testing.T) {
	Convey("output range config sends nominal then peak", t, func() {
		bus, dev := createTestDevice(t)

		err := dev.ConfigOutputRange(0, 0, +1, -1, kTestTimeout)
		So(err, ShouldBeNil)
		So(bus.txCount, ShouldEqual, 2)
		So(bus.frames[0].Cmd, ShouldEqual, cmdCfgNominalOutput)
		So(bus.frames[1].Cmd, ShouldEqual, cmdCfgPeakOutput)

		Convey("outputs travel as signed hundredths", func() {
			So(bus.frames[0].Data, ShouldResemble, []byte{0x00, 0x00})
			So(bus.frames[1].Data, ShouldResemble, []byte{100, 0x9C})
		})
	})

	Convey("gains go out as four slot-tagged writes", t, func() {
		bus, dev := createTestDevice(t)

		err := dev.ConfigGains(1, 1.25, 0, 8.0, 0.2, kTestTimeout)
		So(err, ShouldBeNil)
		So(bus.txCount, ShouldEqual, 4)
		So(bus.frames[0].Cmd, ShouldEqual, cmdCfgKP)
		So(bus.frames[3].Cmd, ShouldEqual, cmdCfgKF)
		for _, frame := range bus.frames {
			So(frame.Data[0], ShouldEqual, 1)
			So(frame.Data, ShouldHaveLength, 5)
		}
	})

	Convey("motion limits go out as two writes", t, func() {
		bus, dev := createTestDevice(t)

		err := dev.ConfigMotionLimits(410, 819, kTestTimeout)
		So(err, ShouldBeNil)
		So(bus.frames[0].Cmd, ShouldEqual, cmdCfgMotionCruise)
		So(bus.frames[0].Data, ShouldResemble, encodeInt32(410))
		So(bus.frames[1].Cmd, ShouldEqual, cmdCfgMotionAccel)
		So(bus.frames[1].Data, ShouldResemble, encodeInt32(819))
	})

	Convey("position reads decode the response payload", t, func() {
		bus, dev := createTestDevice(t)
		bus.position = -2048

		pos, err := dev.RawPosition(0, kTestTimeout)
		So(err, ShouldBeNil)
		So(pos, ShouldEqual, -2048)
		So(bus.lastTx().Cmd, ShouldEqual, cmdGetPosition)
	})

	Convey("the sensor kind is mapped to its wire code", t, func() {
		bus, dev := createTestDevice(t)

		err := dev.ConfigFeedbackSensor(motor.SensorMagEncoderRelative, 0, kTestTimeout)
		So(err, ShouldBeNil)
		So(bus.lastTx().Data, ShouldResemble, []byte{0x00, 0x02})

		Convey("an unmapped kind is refused without touching the bus", func() {
			bus.frames = nil
			err := dev.ConfigFeedbackSensor(motor.SensorNone, 0, kTestTimeout)
			So(err, ShouldNotBeNil)
			So(bus.frames, ShouldBeEmpty)
		})
	})

	Convey("percent output streams without waiting for an ack", t, func() {
		bus, dev := createTestDevice(t)
		bus.rxecho = false

		err := dev.SetPercentOutput(0.5)
		So(err, ShouldBeNil)
		So(bus.lastTx().Cmd, ShouldEqual, cmdPercentOutput)
	})
}
