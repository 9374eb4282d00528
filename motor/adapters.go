package motor

type feedbackMode int

const (
	modeDistance feedbackMode = iota
	modeVelocity
)

// FeedbackSource exposes one measured physical quantity of a controller in
// the vocabulary a generic control loop expects. It holds a non-owning
// reference and must not outlive its MotorController.
type FeedbackSource struct {
	controller *MotorController
	mode       feedbackMode
}

// Read returns the current value of the source's quantity in physical units.
func (s FeedbackSource) Read() (float64, error) {
	if s.mode == modeVelocity {
		return s.controller.Velocity()
	}

	return s.controller.Distance()
}

// OutputSink accepts percent-output commands from a generic control loop.
// Like FeedbackSource it must not outlive its MotorController.
type OutputSink struct {
	controller *MotorController
}

// Write commands the motor with the given percent output.
func (s OutputSink) Write(output float64) error {
	return s.controller.SetPercentOutput(output)
}

// DistanceSource returns a feedback source reading Distance.
func (m *MotorController) DistanceSource() FeedbackSource {
	return FeedbackSource{controller: m, mode: modeDistance}
}

// VelocitySource returns a feedback source reading Velocity.
func (m *MotorController) VelocitySource() FeedbackSource {
	return FeedbackSource{controller: m, mode: modeVelocity}
}

// PercentOutputSink returns an output sink commanding percent output.
func (m *MotorController) PercentOutputSink() OutputSink {
	return OutputSink{controller: m}
}
