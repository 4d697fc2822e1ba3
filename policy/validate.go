// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"clawguard/platform/scanner"
)

// ErrInvalidPolicy wraps every validation failure so transport layers can
// tell a bad document apart from an I/O failure.
var ErrInvalidPolicy = errors.New("invalid policy")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	mustRegister(v, "action", func(fl validator.FieldLevel) bool {
		return Action(fl.Field().String()).Valid()
	})
	mustRegister(v, "severity", func(fl validator.FieldLevel) bool {
		return scanner.Severity(fl.Field().String()).Valid()
	})
	mustRegister(v, "scannertype", func(fl validator.FieldLevel) bool {
		switch scanner.Type(fl.Field().String()) {
		case scanner.TypeSecret, scanner.TypePII, scanner.TypeCustom:
			return true
		}
		return false
	})
	mustRegister(v, "redactstrategy", func(fl validator.FieldLevel) bool {
		return RedactStrategy(fl.Field().String()).Valid()
	})
	mustRegister(v, "glob", func(fl validator.FieldLevel) bool {
		_, err := compileGlob(fl.Field().String())
		return err == nil
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("policy: register %q validator: %v", tag, err))
	}
}

// Validate checks the whole policy document: enum fields, glob syntax, and
// custom pattern regexes. It returns an error wrapping ErrInvalidPolicy
// describing the first problem found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidPolicy)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidPolicy, describeFieldError(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	if cfg.PromptThreshold != nil && !cfg.PromptThreshold.Valid() {
		return fmt.Errorf("%w: prompt_threshold %q is not a severity", ErrInvalidPolicy, *cfg.PromptThreshold)
	}

	for _, spec := range cfg.CustomPatterns {
		if strings.TrimSpace(spec.Name) == "" {
			return fmt.Errorf("%w: custom pattern with empty name", ErrInvalidPolicy)
		}
		if spec.Severity != "" && !scanner.Severity(strings.ToUpper(spec.Severity)).Valid() {
			return fmt.Errorf("%w: custom pattern %q: unknown severity %q", ErrInvalidPolicy, spec.Name, spec.Severity)
		}
		if _, err := scanner.CompilePatternSafe(spec.Regex); err != nil {
			return fmt.Errorf("%w: custom pattern %q: %v", ErrInvalidPolicy, spec.Name, err)
		}
	}

	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "action":
		return fmt.Sprintf("%s: %q is not an action", fe.Namespace(), fe.Value())
	case "severity":
		return fmt.Sprintf("%s: %q is not a severity", fe.Namespace(), fe.Value())
	case "scannertype":
		return fmt.Sprintf("%s: %q is not a scanner type", fe.Namespace(), fe.Value())
	case "redactstrategy":
		return fmt.Sprintf("%s: %q is not a redaction strategy", fe.Namespace(), fe.Value())
	case "glob":
		return fmt.Sprintf("%s: %q is not a valid glob", fe.Namespace(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag())
	}
}
