package device

// DefaultRegistrationTopic is where the registration event is published.
const DefaultRegistrationTopic = "devices/"

// Topics holds the per-device topic names.
type Topics struct {
	ModelData            string
	ModelInference       string
	ModelInferenceResult string
	EndComputation       string
}

// TopicsFor derives the topic set rooted at deviceID.
func TopicsFor(deviceID string) Topics {
	return Topics{
		ModelData:            deviceID + "/model_data",
		ModelInference:       deviceID + "/model_inference",
		ModelInferenceResult: deviceID + "/model_inference_result",
		EndComputation:       deviceID + "/end_computation",
	}
}

// Inbound lists the topics the agent subscribes to, in subscription order.
func (t Topics) Inbound() []string {
	return []string{t.ModelData, t.ModelInference, t.EndComputation}
}
