package access

// DenialReason is the stable machine-readable code attached to every
// authorization denial.
type DenialReason string

const (
	ReasonNone               DenialReason = ""
	ReasonNotFound           DenialReason = "not_found"
	ReasonExpired            DenialReason = "expired"
	ReasonExhausted          DenialReason = "exhausted"
	ReasonInactive           DenialReason = "inactive"
	ReasonDeviceCapExceeded  DenialReason = "device_limit_reached"
	ReasonServiceUnavailable DenialReason = "service_unavailable"
	// ReasonUpstreamUnavailable means the token was fine but the video could
	// not be resolved; callers should surface a retryable error, never a
	// silent success.
	ReasonUpstreamUnavailable DenialReason = "upstream_unavailable"
)
