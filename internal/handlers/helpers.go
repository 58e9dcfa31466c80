package handlers

import (
	"errors"
	"strconv"
)

var errNotPositive = errors.New("value must be a positive integer")

// parsePositiveInt parses a query parameter that must be a positive integer
func parsePositiveInt(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errNotPositive
	}
	return n, nil
}
