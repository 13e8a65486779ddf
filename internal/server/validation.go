package server

import (
	"errors"
	"fmt"
	"strings"
)

const (
	maxNameLength = 32
	minTolerance  = 1
	maxTolerance  = 1000000
)

func validateName(name string) (string, error) {
	trimmed := strings.Join(strings.Fields(strings.TrimSpace(name)), " ")
	if trimmed == "" {
		return "", errors.New("name is required")
	}
	if len(trimmed) > maxNameLength {
		return "", fmt.Errorf("name must be %d characters or fewer", maxNameLength)
	}
	return trimmed, nil
}

func validateTolerance(tolerance int) error {
	if tolerance < minTolerance {
		return errors.New("tolerance must be at least 1")
	}
	if tolerance > maxTolerance {
		return fmt.Errorf("tolerance must be %d or less", maxTolerance)
	}
	return nil
}

// validateProbability keeps zero and out-of-range values away from the
// update rule, which would otherwise produce a non-finite delta.
func validateProbability(label string, p float64) error {
	if p <= 0 || p > 1 {
		return fmt.Errorf("%s must be greater than 0 and at most 1", label)
	}
	return nil
}

func validateRating(label string, rating int) error {
	if rating < 0 || rating > 10 {
		return fmt.Errorf("%s must be between 0 and 10", label)
	}
	return nil
}
