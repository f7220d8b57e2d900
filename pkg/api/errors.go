package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched (via errors.Is) by transport errors carrying a 404.
var ErrNotFound = errors.New("api: not found")

// Fallback messages shown when the backend did not report its own error text.
const (
	MsgPredictionFailed  = "Error al realizar la predicción"
	MsgModelsUnavailable = "No se pudieron cargar los modelos disponibles"
	MsgDatasetsFailed    = "No se pudieron cargar los datasets"
	MsgPreviewFailed     = "No se pudo cargar la vista previa"
	MsgColumnsFailed     = "No se pudieron cargar las columnas"
	MsgTrainingFailed    = "Error al iniciar el entrenamiento"
	MsgCleaningFailed    = "Error al aplicar la limpieza"
	MsgDeleteFailed      = "Ocurrió un error al eliminar"
)

// RequestError rejects a request locally; nothing reaches the network.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "api: " + e.Message
}

// TransportError reports a network failure or a non-2xx response. Message is
// the backend's error text when the body carried one, otherwise a generic
// fallback suitable for display.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("api: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause (network error, decode error).
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *TransportError) Is(target error) bool {
	return target == ErrNotFound && e != nil && e.StatusCode == 404
}

// DisplayMessage returns the user-facing message carried by err when it is a
// TransportError or RequestError, or fallback otherwise.
func DisplayMessage(err error, fallback string) string {
	var rerr *RequestError
	if errors.As(err, &rerr) && strings.TrimSpace(rerr.Message) != "" {
		return rerr.Message
	}
	var terr *TransportError
	if errors.As(err, &terr) && strings.TrimSpace(terr.Message) != "" {
		return terr.Message
	}
	return fallback
}

type errorBody struct {
	Error string `json:"error"`
}
