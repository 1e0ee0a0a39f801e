package main

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

var errEmptyInput = errors.New("value should not be empty")

// promptRequired asks until a non-blank value is entered.
func promptRequired(label, current string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: current,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errEmptyInput
			}
			return nil
		},
	}
	result, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

// promptOptional accepts whatever is entered, including nothing.
func promptOptional(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
	}
	result, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

func confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	result, err := prompt.Run()
	if err != nil {
		return false
	}
	return strings.ToLower(result) == "y"
}

// pause keeps the console window open until the operator presses Enter.
func pause() {
	prompt := promptui.Prompt{
		Label:       "Press Enter to continue",
		HideEntered: true,
	}
	_, _ = prompt.Run()
}
