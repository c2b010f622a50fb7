package api

import "errors"

// Taxonomía de errores del core. Los stores las convierten en estado
// (campos de error), nunca llegan crudas a la capa de vista.
var (
	// ErrAuthRequired: acción gated sin token local. No implica red.
	ErrAuthRequired = errors.New("auth required")

	// ErrUnauthorized: el server rechazó el token (re-login necesario).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation: input rechazado por el server (registro/perfil).
	ErrValidation = errors.New("validation error")

	// ErrNetwork: falla de transporte, sin respuesta del server.
	ErrNetwork = errors.New("network error")

	// ErrNotFound: el recurso (pet) no existe.
	ErrNotFound = errors.New("not found")

	// ErrVerificationFailed: el pago fue capturado pero el server rechazó
	// la firma. Se distingue del pago fallido porque la plata puede haberse
	// movido.
	ErrVerificationFailed = errors.New("payment verification failed")
)

// RemoteError conserva el mensaje {error} que mandó el server, sin perder
// la categoría (Kind) para errors.Is.
type RemoteError struct {
	Kind    error
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// Message devuelve el texto para mostrar al usuario: el mensaje remoto si
// existe, si no el error tal cual.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
