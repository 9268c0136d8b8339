package main

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

type registerForm struct {
	Name     string `schema:"name" validate:"required,max=250"`
	Email    string `schema:"email" validate:"required,email,max=250"`
	Password string `schema:"password" validate:"required,min=8,max=20,bcryptlen"`
}

type loginForm struct {
	Email    string `schema:"email" validate:"required,email"`
	Password string `schema:"password" validate:"required"`
}

type postForm struct {
	Title    string `schema:"title" validate:"required,max=250"`
	Subtitle string `schema:"subtitle" validate:"required,max=250"`
	ImgURL   string `schema:"img_url" validate:"required,url,max=250"`
	Body     string `schema:"body" validate:"required"`
}

type commentForm struct {
	Comment string `schema:"comment" validate:"required,max=2000"`
}

// contactForm is forwarded to the mailbox as typed.
type contactForm struct {
	Name    string `schema:"name"`
	Email   string `schema:"email"`
	Phone   string `schema:"phone"`
	Message string `schema:"message"`
}

// formErrors maps a form field name to the message shown next to it.
type formErrors map[string]string

var requiredMessages = map[string]string{
	"name":     "Enter your name first!",
	"email":    "Enter your Email!",
	"password": "Enter a Password",
	"comment":  "Can't submit an empty comment!",
}

var lengthMessages = map[string]string{
	"name":     "Field cannot be longer than 250 characters.",
	"email":    "Field cannot be longer than 250 characters.",
	"password": "Field must be between 8 and 20 characters long.",
	"title":    "Field cannot be longer than 250 characters.",
	"subtitle": "Field cannot be longer than 250 characters.",
	"img_url":  "Field cannot be longer than 250 characters.",
	"comment":  "Field cannot be longer than 2000 characters.",
}

// bcrypt only looks at the first 72 bytes of a password and rejects
// anything longer.
const maxPasswordBytes = 72

var (
	formDecoder   = newFormDecoder()
	formValidator = newFormValidator()
)

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("schema"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeForm fills dst from the submitted form values. Text inputs are
// trimmed except for passwords.
func decodeForm(dst any, values url.Values) error {
	trimmed := make(url.Values, len(values))
	for k, vs := range values {
		for _, v := range vs {
			if k != "password" {
				v = strings.TrimSpace(v)
			}
			trimmed.Add(k, v)
		}
	}
	return formDecoder.Decode(dst, trimmed)
}

// validateForm returns nil when form passes every rule.
func validateForm(form any) formErrors {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}

	errs := formErrors{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["form"] = err.Error()
		return errs
	}

	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = fieldMessage(field, fe.Tag())
	}
	return errs
}

func fieldMessage(field, tag string) string {
	switch tag {
	case "required":
		if msg, ok := requiredMessages[field]; ok {
			return msg
		}
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "url":
		return "Invalid URL."
	case "bcryptlen":
		return "Password is too long, use fewer special characters."
	case "min", "max":
		if msg, ok := lengthMessages[field]; ok {
			return msg
		}
	}
	return fmt.Sprintf("Invalid value for %s.", field)
}
