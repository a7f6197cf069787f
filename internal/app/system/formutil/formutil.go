// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails validation, the form is re-rendered with
// the previously entered values echoed back and a message explaining what
// went wrong. Embed Base in the form's view model:
//
//	type registerData struct {
//		formutil.Base
//		Surname string
//	}
//
//	data := registerData{Surname: surname}
//	formutil.SetBase(&data.Base, r, "Register", "/")
//	data.SetError("Surname is required.")
//	templates.Render(w, r, "register_form", data)
package formutil

import (
	"net/http"

	"github.com/dalemusser/splereg/internal/app/system/viewdata"
)

// Base contains common fields for form pages.
type Base struct {
	viewdata.BaseVM
	Error string
}

// SetBase populates the common fields from the request.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(r, title, backDefault)
}

// SetError sets the message shown above the form. Templates escape it.
func (b *Base) SetError(msg string) {
	b.Error = msg
}

// HasError reports whether a message is set.
func (b *Base) HasError() bool {
	return b.Error != ""
}
