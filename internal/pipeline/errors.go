package pipeline

import "github.com/eddist-go/bbs/internal/bbscgi"

// ActivationRequiredError is returned in place of a Result when the
// submission's token is new or has not yet completed out-of-band
// activation. Info carries what the legacy activation page renders.
type ActivationRequiredError struct {
	Err  *bbscgi.Error
	Info ActivationInfo
}

func (e *ActivationRequiredError) Error() string {
	return e.Err.Error()
}

func (e *ActivationRequiredError) Unwrap() error {
	return e.Err
}

func activationRequired(token, authCode string) *ActivationRequiredError {
	return &ActivationRequiredError{
		Err:  bbscgi.RequiresActivation("token awaiting /auth-code activation"),
		Info: ActivationInfo{Token: token, AuthCode: authCode},
	}
}
