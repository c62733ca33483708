package config

// Manifest identifiers.
const (
	// APIVersion is the Kubernetes-style API version of scribe configs.
	APIVersion = "scribe.streaming-app.io/v1alpha1"

	// KindScribeConfig is the only manifest kind the loader accepts.
	KindScribeConfig = "ScribeConfig"
)
