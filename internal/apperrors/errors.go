// Package apperrors defines the error taxonomy for the message pipeline
// and the single place where internal failures are mapped to the short
// user-facing texts a contact may see. Raw error detail never reaches
// the chat.
package apperrors

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrDatabase        = errors.New("database error")
	ErrTranscription   = errors.New("transcription error")
	ErrFilesystem      = errors.New("filesystem error")
	ErrExternalService = errors.New("external service error")
	ErrNotFound        = errors.New("not found")
)

// UserMessage returns the friendly text for an error kind. Unknown
// errors get the generic storage message since that is the most common
// failure in practice.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "El dato ingresado no es válido, por favor intenta de nuevo."
	case errors.Is(err, ErrTranscription):
		return "No pude entender el audio, ¿puedes escribirlo como texto?"
	case errors.Is(err, ErrFilesystem):
		return "Tuve un problema procesando el archivo, intenta de nuevo."
	case errors.Is(err, ErrExternalService):
		return "Estoy teniendo problemas en este momento, intenta más tarde."
	case errors.Is(err, ErrNotFound):
		return "No encontré la información solicitada."
	default:
		return "Ocurrió un error guardando tus datos, intenta de nuevo."
	}
}
