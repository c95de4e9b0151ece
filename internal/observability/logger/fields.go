package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar - HTTP

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// Campos estándar - dominio auth

// Client crea un campo para el nombre del cliente de autenticación.
func Client(v string) zap.Field { return zap.String("client", v) }

// ClientType crea un campo para el tipo de protocolo del cliente.
func ClientType(v string) zap.Field { return zap.String("client_type", v) }

// Provider crea un campo para el proveedor externo.
func Provider(v string) zap.Field { return zap.String("provider", v) }

// ProfileID crea un campo para el typed-id del perfil resuelto.
func ProfileID(v string) zap.Field { return zap.String("profile_id", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }
