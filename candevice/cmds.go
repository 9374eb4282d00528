package candevice

import (
	"encoding/binary"
	"math"

	"github.com/openloop-robotics/godrivekit/motor"
)

// Command words understood by the motor-controller firmware. Configuration
// commands are acknowledged by the node echoing the command word back;
// percent output is streamed unacknowledged.
const (
	cmdPercentOutput uint16 = 0x0010

	cmdCfgNominalOutput uint16 = 0x0020
	cmdCfgPeakOutput    uint16 = 0x0030
	cmdCfgDeadband      uint16 = 0x0040
	cmdCfgStatusPeriod  uint16 = 0x0050
	cmdCfgFeedback      uint16 = 0x0060
	cmdSelectSlot       uint16 = 0x0070

	cmdCfgKP    uint16 = 0x0080
	cmdCfgKI    uint16 = 0x0090
	cmdCfgKD    uint16 = 0x00A0
	cmdCfgKF    uint16 = 0x00B0
	cmdCfgIZone uint16 = 0x00C0

	cmdCfgMotionCruise uint16 = 0x00D0
	cmdCfgMotionAccel  uint16 = 0x00E0

	cmdGetPosition uint16 = 0x0100
	cmdSetPosition uint16 = 0x0110
	cmdGetRate     uint16 = 0x0120
	cmdGetLoopErr  uint16 = 0x0130

	cmdVersion uint16 = 0x03E0
)

var cmdNames = map[uint16]string{
	cmdPercentOutput:    "percent output",
	cmdCfgNominalOutput: "config nominal output",
	cmdCfgPeakOutput:    "config peak output",
	cmdCfgDeadband:      "config neutral deadband",
	cmdCfgStatusPeriod:  "config status frame period",
	cmdCfgFeedback:      "config feedback sensor",
	cmdSelectSlot:       "select profile slot",
	cmdCfgKP:            "config kP",
	cmdCfgKI:            "config kI",
	cmdCfgKD:            "config kD",
	cmdCfgKF:            "config kF",
	cmdCfgIZone:         "config izone",
	cmdCfgMotionCruise:  "config motion cruise velocity",
	cmdCfgMotionAccel:   "config motion acceleration",
	cmdGetPosition:      "get position",
	cmdSetPosition:      "set position",
	cmdGetRate:          "get rate",
	cmdGetLoopErr:       "get closed loop error",
	cmdVersion:          "get version",
}

func cmdName(cmd uint16) string {
	if name, ok := cmdNames[cmd]; ok {
		return name
	}
	return "unknown command"
}

// Feedback sensor codes on the wire.
var sensorCodes = map[motor.SensorKind]byte{
	motor.SensorQuadEncoder:        0x01,
	motor.SensorMagEncoderRelative: 0x02,
	motor.SensorMagEncoderAbsolute: 0x03,
	motor.SensorAnalog:             0x04,
}

// Outputs in [-1, 1] travel as signed hundredths.
func encodeOutput(v float64) byte {
	return byte(int8(math.Round(v * 100)))
}

func encodeFloat(v float64) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
	return buf
}

func encodeInt32(v int) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
	return buf
}

func decodeInt32(data []byte) int {
	if len(data) < 4 {
		return 0
	}
	return int(int32(binary.LittleEndian.Uint32(data)))
}
