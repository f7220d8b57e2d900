package predict

import (
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-tasador/pkg/api"
)

// FormState maps each input column to its raw string value.
type FormState map[string]string

// Clone returns an independent copy.
func (s FormState) Clone() FormState {
	out := make(FormState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EmptyFields lists the columns whose value is empty, in the given order.
func (s FormState) EmptyFields(order []string) []string {
	var out []string
	for _, column := range order {
		if s[column] == "" {
			out = append(out, column)
		}
	}
	return out
}

// BuildRequest coerces every value with ParseFloat. Values that do not parse
// become NaN and are forwarded unchanged.
func BuildRequest(experimentID string, state FormState) api.PredictionRequest {
	data := make(map[string]float64, len(state))
	for column, raw := range state {
		data[column] = ParseFloat(raw)
	}
	return api.PredictionRequest{ExperimentID: experimentID, Data: data}
}

// ParseFloat parses the longest numeric prefix of s after leading whitespace,
// the way browsers coerce form input: "12.5m2" is 12.5, "1e3" is 1000,
// "Infinity" is +Inf, and input without a numeric prefix is NaN.
func ParseFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f\u00a0\ufeff")
	if s == "" {
		return math.NaN()
	}

	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	end := i

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			expDigits++
		}
		if expDigits > 0 {
			end = j
		}
	}

	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range literals overflow to ±Inf, which ParseFloat already
		// returns alongside the range error.
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return value
		}
		return math.NaN()
	}
	return value
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
