package http

import (
	"strconv"
	"strings"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }
