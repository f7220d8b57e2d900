package predict

import (
	"errors"
	"strings"

	"github.com/goliatone/go-tasador/pkg/api"
)

// User-facing validation messages.
const (
	MsgModelRequired     = "Debe seleccionar un modelo entrenado"
	MsgAllFieldsRequired = "Todos los campos son obligatorios"
)

var (
	// ErrNoModel is returned by operations that need a selected model.
	ErrNoModel = errors.New("predict: no model selected")
	// ErrUnknownModel is returned when the requested model is not among the
	// completed experiments.
	ErrUnknownModel = errors.New("predict: unknown model")
	// ErrUnknownField is returned when setting a column the model does not
	// declare.
	ErrUnknownField = errors.New("predict: unknown field")
	// ErrSubmitting is returned while a submission is already in flight.
	ErrSubmitting = errors.New("predict: submission in progress")
	// ErrStale is returned when a response arrives after the selection
	// changed; the response is discarded.
	ErrStale = errors.New("predict: stale response discarded")
)

// ValidationError blocks a submission locally; no request is issued.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// DisplayMessage returns the message to show for an error raised by the
// session: the validation text, the backend's message, or a generic fallback.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return api.DisplayMessage(err, api.MsgPredictionFailed)
}
