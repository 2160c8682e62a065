// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead. The feed handler uses it
// for the ?limit= query parameter.
//
// Example:
//
//	limit := utils.AtoiDefault(c.Query("limit"), 200) // "50" -> 50
//	limit = utils.AtoiDefault("", 200)                // 200
//	limit = utils.AtoiDefault("x", 200)               // 200
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
