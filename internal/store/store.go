// Package store provee los backends de usuarios para la autenticación
// por password (form y basic).
package store

import (
	"context"
	"errors"
)

// ErrNotFound es retornado cuando el usuario no existe.
var ErrNotFound = errors.New("store: user not found")

// User es un usuario con su hash bcrypt y atributos de perfil.
type User struct {
	Username     string
	PasswordHash string

	names []string
	attrs map[string]string
}

// NewUser crea un usuario.
func NewUser(username, passwordHash string) *User {
	return &User{Username: username, PasswordHash: passwordHash, attrs: make(map[string]string)}
}

// SetAttribute agrega un atributo de perfil (orden de inserción preservado).
func (u *User) SetAttribute(name, value string) {
	if u.attrs == nil {
		u.attrs = make(map[string]string)
	}
	if _, ok := u.attrs[name]; !ok {
		u.names = append(u.names, name)
	}
	u.attrs[name] = value
}

// Attribute retorna el valor del atributo o "".
func (u *User) Attribute(name string) string { return u.attrs[name] }

// AttributeNames retorna los nombres en orden de inserción.
func (u *User) AttributeNames() []string {
	out := make([]string, len(u.names))
	copy(out, u.names)
	return out
}

// Store define el acceso de solo lectura a usuarios.
type Store interface {
	// FindByUsername retorna el usuario o ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*User, error)
}
