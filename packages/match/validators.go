package match

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// validator checks one marker predicate. It returns an empty string when the
// value is acceptable, otherwise a short reason.
type validator func(actual any) string

var validators = map[string]validator{
	"#string":  typeValidator("STRING", "not a string"),
	"#number":  typeValidator("NUMBER", "not a number"),
	"#boolean": typeValidator("BOOLEAN", "not a boolean"),
	"#array":   typeValidator("LIST", "not an array"),
	"#object":  typeValidator("MAP", "not an object"),
	"#null": func(actual any) string {
		if actual != nil {
			return "not null"
		}
		return ""
	},
	"#notnull": func(actual any) string {
		if actual == nil {
			return "is null"
		}
		return ""
	},
	"#present": func(actual any) string {
		if _, absent := actual.(absentValue); absent {
			return "not present"
		}
		return ""
	},
	"#notpresent": func(actual any) string {
		if _, absent := actual.(absentValue); !absent {
			return "is present"
		}
		return ""
	},
	"#uuid": func(actual any) string {
		s, ok := actual.(string)
		if !ok {
			return "not a string"
		}
		if _, err := uuid.Parse(s); err != nil {
			return "not a valid uuid"
		}
		return ""
	},
}

func typeValidator(name, reason string) validator {
	return func(actual any) string {
		if _, absent := actual.(absentValue); absent {
			return "not present"
		}
		if typeName(actual) != name {
			return reason
		}
		return ""
	}
}

// markerOf reports whether expected is a marker string.
func markerOf(expected any) (string, bool) {
	s, ok := expected.(string)
	if !ok || !strings.HasPrefix(s, "#") {
		return "", false
	}
	return s, true
}

func (op operation) marker(path string, actual any, marker string) Result {
	if strings.HasPrefix(marker, "#regex") {
		pattern := strings.TrimSpace(strings.TrimPrefix(marker, "#regex"))
		return op.regexMarker(path, actual, marker, pattern)
	}
	if strings.HasPrefix(marker, "#[") {
		return op.lengthMarker(path, actual, marker)
	}
	v, known := validators[marker]
	if !known {
		return failAt(path, actual, marker, fmt.Sprintf("unknown validator marker: %s", marker))
	}
	if reason := v(actual); reason != "" {
		return failAt(path, actual, marker, reason)
	}
	return pass
}

func (op operation) regexMarker(path string, actual any, marker, pattern string) Result {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return failAt(path, actual, marker, fmt.Sprintf("invalid regex: %s", pattern))
	}
	s, ok := actual.(string)
	if !ok {
		return failAt(path, actual, marker, "not a string")
	}
	if !re.MatchString(s) {
		return failAt(path, actual, marker, "regex match failed")
	}
	return pass
}

// lengthMarker handles #[] and #[n]: actual must be a list, optionally of the
// exact length.
func (op operation) lengthMarker(path string, actual any, marker string) Result {
	inner, ok := strings.CutPrefix(marker, "#[")
	if !ok || !strings.HasSuffix(inner, "]") {
		return failAt(path, actual, marker, fmt.Sprintf("unknown validator marker: %s", marker))
	}
	inner = strings.TrimSpace(strings.TrimSuffix(inner, "]"))
	list, isList := actual.([]any)
	if !isList {
		return failAt(path, actual, marker, "not an array")
	}
	if inner == "" {
		return pass
	}
	want, err := strconv.Atoi(inner)
	if err != nil {
		return failAt(path, actual, marker, fmt.Sprintf("unknown validator marker: %s", marker))
	}
	if len(list) != want {
		reason := fmt.Sprintf("actual array length is not equal to expected - %d:%d", len(list), want)
		return failAt(path, actual, marker, reason)
	}
	return pass
}
