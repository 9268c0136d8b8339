package main

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeForm_Trims(t *testing.T) {
	var form registerForm
	err := decodeForm(&form, url.Values{
		"name":       {"  Reader "},
		"email":      {" reader@example.com\n"},
		"password":   {" spaced password "},
		"csrf_token": {"ignored"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Reader", form.Name)
	assert.Equal(t, "reader@example.com", form.Email)
	assert.Equal(t, " spaced password ", form.Password)
}

func TestValidateForm_Valid(t *testing.T) {
	form := registerForm{Name: "Reader", Email: "reader@example.com", Password: "readerpass"}
	assert.Nil(t, validateForm(form))
}

func TestValidateForm_Register(t *testing.T) {
	tests := []struct {
		name string
		form registerForm
		want formErrors
	}{
		{
			name: "all empty",
			form: registerForm{},
			want: formErrors{
				"name":     "Enter your name first!",
				"email":    "Enter your Email!",
				"password": "Enter a Password",
			},
		},
		{
			name: "bad email",
			form: registerForm{Name: "Reader", Email: "nope", Password: "readerpass"},
			want: formErrors{"email": "Invalid email address."},
		},
		{
			name: "password too short",
			form: registerForm{Name: "Reader", Email: "reader@example.com", Password: "1234567"},
			want: formErrors{"password": "Field must be between 8 and 20 characters long."},
		},
		{
			name: "password over bcrypt limit",
			form: registerForm{Name: "Reader", Email: "reader@example.com", Password: strings.Repeat("😀", 19)},
			want: formErrors{"password": "Password is too long, use fewer special characters."},
		},
		{
			name: "long name",
			form: registerForm{Name: strings.Repeat("n", 251), Email: "reader@example.com", Password: "readerpass"},
			want: formErrors{"name": "Field cannot be longer than 250 characters."},
		},
		{
			name: "password too long",
			form: registerForm{Name: "Reader", Email: "reader@example.com", Password: strings.Repeat("a", 21)},
			want: formErrors{"password": "Field must be between 8 and 20 characters long."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateForm(tt.form))
		})
	}
}

func TestValidateForm_Post(t *testing.T) {
	errs := validateForm(postForm{
		Title:    "Title",
		Subtitle: "Subtitle",
		ImgURL:   "not a url",
	})

	assert.Equal(t, formErrors{
		"img_url": "Invalid URL.",
		"body":    "This field is required.",
	}, errs)
}

func TestValidateForm_Comment(t *testing.T) {
	assert.Equal(t, formErrors{"comment": "Can't submit an empty comment!"}, validateForm(commentForm{}))
	assert.Equal(t, formErrors{"comment": "Field cannot be longer than 2000 characters."},
		validateForm(commentForm{Comment: strings.Repeat("x", 2001)}))
	assert.Nil(t, validateForm(commentForm{Comment: strings.Repeat("x", 2000)}))
}

func TestValidateForm_MultibytePasswordWithinLimit(t *testing.T) {
	// 18 four-byte characters fill bcrypt's 72 bytes exactly
	form := registerForm{Name: "Reader", Email: "reader@example.com", Password: strings.Repeat("😀", 18)}
	assert.Nil(t, validateForm(form))

	_, err := hashPassword(form.Password)
	assert.NoError(t, err)
}

func TestValidateForm_PostFieldLengths(t *testing.T) {
	long := strings.Repeat("t", 251)

	errs := validateForm(postForm{
		Title:    long,
		Subtitle: long,
		ImgURL:   "https://example.com/" + long,
		Body:     "Body",
	})

	assert.Equal(t, formErrors{
		"title":    "Field cannot be longer than 250 characters.",
		"subtitle": "Field cannot be longer than 250 characters.",
		"img_url":  "Field cannot be longer than 250 characters.",
	}, errs)

	assert.Nil(t, validateForm(postForm{
		Title:    strings.Repeat("t", 250),
		Subtitle: "Subtitle",
		ImgURL:   "https://example.com/bg.jpg",
		Body:     "Body",
	}))
}
