// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prompt

import (
	"errors"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ava-labs/opwatch/utils"
)

var (
	ErrInputEmpty      = errors.New("input is empty")
	ErrInputTooLarge   = errors.New("input is too large")
	ErrInvalidChoice   = errors.New("invalid choice")
	ErrIndexOutOfRange = errors.New("index out-of-range")
	ErrInvalidHash     = errors.New("hash must not contain whitespace")
)

// ValidateString checks the trimmed length of [input].
func ValidateString(input string, minLen int, maxLen int) error {
	input = strings.TrimSpace(input)
	if len(input) < minLen {
		return ErrInputEmpty
	}
	if len(input) > maxLen {
		return ErrInputTooLarge
	}
	return nil
}

// ValidateHash accepts any non-empty token without inner whitespace.
func ValidateHash(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return ErrInputEmpty
	}
	if strings.ContainsAny(input, " \t\r\n") {
		return ErrInvalidHash
	}
	return nil
}

func String(label string, minLen int, maxLen int) (string, error) {
	promptText := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			return ValidateString(input, minLen, maxLen)
		},
	}
	text, err := promptText.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func Hash(label string) (string, error) {
	promptText := promptui.Prompt{
		Label:    label,
		Validate: ValidateHash,
	}
	hash, err := promptText.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(hash), nil
}

func Choice(label string, maxChoice int) (int, error) {
	if maxChoice == 1 {
		utils.Outf("{{yellow}}%s:{{/}} 0 [auto-selected]\n", label)
		return 0, nil
	}
	promptText := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if len(input) == 0 {
				return ErrInputEmpty
			}
			index, err := strconv.Atoi(input)
			if err != nil {
				return err
			}
			if index >= maxChoice || index < 0 {
				return ErrIndexOutOfRange
			}
			return nil
		},
	}
	rawIndex, err := promptText.Run()
	if err != nil {
		return -1, err
	}
	return strconv.Atoi(rawIndex)
}

func Continue() (bool, error) {
	promptText := promptui.Prompt{
		Label: "continue (y/n)",
		Validate: func(input string) error {
			if len(input) == 0 {
				return ErrInputEmpty
			}
			lower := strings.ToLower(input)
			if lower == "y" || lower == "n" {
				return nil
			}
			return ErrInvalidChoice
		},
	}
	rawContinue, err := promptText.Run()
	if err != nil {
		return false, err
	}
	cont := strings.ToLower(rawContinue)
	if cont == "n" {
		utils.Outf("{{red}}exiting...{{/}}\n")
		return false, nil
	}
	return true, nil
}
