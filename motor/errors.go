package motor

import (
	"fmt"
	"time"
)

// MissingFeedbackDeviceError is returned when a closed-loop profile is built
// without a feedback sensor kind.
type MissingFeedbackDeviceError struct {
	ConfigKey string
}

func (err MissingFeedbackDeviceError) Error() string {
	key := err.ConfigKey
	if len(key) == 0 {
		key = "UNKNOWN"
	}

	return fmt.Sprintf("profile %s: closed loop requires a feedback device", key)
}

// DeviceError reports a device call that did not complete within its timeout
// budget. The underlying device may be left in an undefined state; recovery
// is the driver's problem, retry policy is the caller's.
type DeviceError struct {
	Op      string
	Timeout time.Duration
}

func (err DeviceError) Error() string {
	return fmt.Sprintf("device %s: no acknowledgement within %s", err.Op, err.Timeout)
}
