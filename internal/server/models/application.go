// Package models defines server-side data models persisted in the database
// and the request payloads that create them.
package models

// Application is a tenant owning a set of users.
type Application struct {
	ID      string `json:"id"`
	AppName string `json:"app_name"`
}

// NewApplication is the input of POST /api/auth/applications/{app_name}.
// The length bound matches the app_name column.
type NewApplication struct {
	AppName string `json:"app_name" validate:"required,max=255"`
}

func (n NewApplication) Validate() error {
	return validateStruct(n)
}
