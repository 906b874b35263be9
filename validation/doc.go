// Package validation validates option and fixture structs using struct tags.
//
// It wraps go-playground/validator and reports failures as an
// errors.AppError with code INVALID_INPUT and per-field details. Field names
// come from mapstructure tags so they match the config file keys. A custom
// "signal" tag accepts POSIX signal names.
//
//	type DaemonSpec struct {
//	    Name       string   `mapstructure:"name" validate:"required"`
//	    Command    []string `mapstructure:"command" validate:"min=1"`
//	    KillSignal string   `mapstructure:"kill_signal" validate:"signal"`
//	}
//	err := validation.Validate(spec)
package validation
