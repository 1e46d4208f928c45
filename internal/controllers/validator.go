package controllers

import "github.com/go-playground/validator/v10"

// validate backs the enum checks that go beyond gin's binding tags.
var validate = validator.New()
