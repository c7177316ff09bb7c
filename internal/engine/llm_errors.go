package engine

import (
	"context"
	"errors"
	"net"

	"leadplan/engine/internal/errinfo"
	"leadplan/engine/internal/llm"
	"leadplan/engine/internal/plan"
	"leadplan/engine/internal/schema"
)

const providerOpenAI = "openai"

// mapLLMError classifies a failed model plan request for logs and callers.
func mapLLMError(phase string, err error) *errinfo.ErrorInfo {
	info := classifyLLMError(phase, err)
	info.ProviderID = providerOpenAI
	return info
}

func classifyLLMError(phase string, err error) *errinfo.ErrorInfo {
	var parseErr *plan.ParseError
	var validationErrs schema.ValidationErrors
	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		return errinfo.ProviderAuthFailed(phase)
	case errors.Is(err, llm.ErrEgressBlocked):
		return errinfo.EgressBlocked(phase, "provider endpoint not allowed")
	case errors.Is(err, llm.ErrRateLimited):
		return errinfo.ProviderRateLimited(phase, err.Error())
	case errors.Is(err, llm.ErrUnavailable):
		return errinfo.ProviderUnavailable(phase, err.Error())
	case errors.Is(err, context.Canceled):
		return errinfo.UserCanceled(phase, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return errinfo.NetworkUnavailable(phase, err.Error())
	case errors.Is(err, ErrNoPayload), errors.Is(err, llm.ErrEmptyResponse):
		return errinfo.ModelOutputInvalid(phase, errinfo.SubphaseExtract, err.Error())
	case errors.As(err, &parseErr):
		return errinfo.ModelOutputInvalid(phase, errinfo.SubphaseParse, err.Error())
	case errors.As(err, &validationErrs):
		return errinfo.ModelOutputInvalid(phase, errinfo.SubphaseValidate, err.Error())
	}
	if errors.Is(err, ErrModelPanic) {
		info := errinfo.ProviderUnavailable(phase, err.Error())
		info.Subphase = errinfo.SubphaseModelRequest
		info.Retryable = false
		return info
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errinfo.NetworkUnavailable(phase, err.Error())
	}
	info := errinfo.ProviderUnavailable(phase, err.Error())
	info.Subphase = errinfo.SubphaseModelRequest
	return info
}
