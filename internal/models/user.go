package models

import "errors"

// ErrDuplicateUser is returned by user storages when the login is already taken.
var ErrDuplicateUser = errors.New("user already exists")

type UnknownUser struct {
	Login    *string `json:"login"`
	Password *string `json:"password"`
}

type User struct {
	ID    string
	Login string
	Hash  string
}
