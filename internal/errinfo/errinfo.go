package errinfo

// ErrorInfo is the structured error data returned to callers and attached to
// diagnostic log lines.
type ErrorInfo struct {
	ErrorCode  string   `json:"error_code"`
	Phase      string   `json:"phase,omitempty"`
	Subphase   string   `json:"subphase,omitempty"`
	Retryable  bool     `json:"retryable"`
	Actions    []string `json:"actions,omitempty"`
	ProviderID string   `json:"provider_id,omitempty"`
	ModelID    string   `json:"model_id,omitempty"`
	Fields     []string `json:"fields,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

const (
	CodeInvalidInput          = "INVALID_INPUT"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeEgressBlocked         = "EGRESS_BLOCKED_BY_POLICY"
	CodeProviderNotConfigured = "PROVIDER_NOT_CONFIGURED"
	CodeProviderAuthFailed    = "PROVIDER_AUTH_FAILED"
	CodeProviderUnavailable   = "PROVIDER_UNAVAILABLE"
	CodeProviderRateLimited   = "PROVIDER_RATE_LIMITED"
	CodeNetworkUnavailable    = "NETWORK_UNAVAILABLE"
	CodeModelOutputInvalid    = "MODEL_OUTPUT_INVALID"
	CodeUserCanceled          = "USER_CANCELED"
)

const (
	ActionRetry        = "retry"
	ActionFixInput     = "fix_input"
	ActionOpenSettings = "open_settings"
)

const (
	PhaseRequest  = "request"
	PhaseGenerate = "generate"
	PhaseSettings = "settings"
)

const (
	SubphaseModelRequest = "model_request"
	SubphaseExtract      = "extract"
	SubphaseParse        = "parse"
	SubphaseValidate     = "validate"
)

func InvalidInput(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeInvalidInput,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionFixInput},
		Detail:    detail,
	}
}

// MissingFields reports required request fields that were absent or blank.
func MissingFields(phase, detail string, fields []string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeValidationFailed,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionFixInput},
		Fields:    append([]string(nil), fields...),
		Detail:    detail,
	}
}

func ValidationFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeValidationFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func ProviderNotConfigured(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderNotConfigured,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionOpenSettings},
	}
}

func ProviderAuthFailed(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderAuthFailed,
		Phase:     phase,
		Retryable: false,
		Actions:   []string{ActionOpenSettings},
	}
}

func ProviderUnavailable(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderUnavailable,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
		Detail:    detail,
	}
}

func ProviderRateLimited(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeProviderRateLimited,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
		Detail:    detail,
	}
}

func EgressBlocked(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeEgressBlocked,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func NetworkUnavailable(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeNetworkUnavailable,
		Phase:     phase,
		Retryable: true,
		Actions:   []string{ActionRetry},
		Detail:    detail,
	}
}

func ModelOutputInvalid(phase, subphase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeModelOutputInvalid,
		Phase:     phase,
		Subphase:  subphase,
		Retryable: true,
		Actions:   []string{ActionRetry},
		Detail:    detail,
	}
}

func UserCanceled(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeUserCanceled,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}
