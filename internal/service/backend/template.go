package backend

import (
	"fmt"
	"strings"
)

// substitute replaces every {name} token in template with values[name].
// A token without a matching value is an error, never a silent empty
// string. Missing data must surface as a formatting failure.
func substitute(template string, values map[string]string) (string, error) {
	var sb strings.Builder
	for {
		open := strings.IndexByte(template, '{')
		if open < 0 {
			sb.WriteString(template)
			return sb.String(), nil
		}
		sb.WriteString(template[:open])
		rest := template[open+1:]

		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", template)
		}
		name := rest[:closing]

		value, ok := values[name]
		if !ok {
			return "", fmt.Errorf("no value for placeholder {%s}", name)
		}
		sb.WriteString(value)
		template = rest[closing+1:]
	}
}

// stringify converts a decoded JSON record into template values.
func stringify(record map[string]any) map[string]string {
	values := make(map[string]string, len(record))
	for key, v := range record {
		switch typed := v.(type) {
		case string:
			values[key] = typed
		case float64:
			// JSON numbers decode as float64; render integers without
			// the trailing ".0".
			if typed == float64(int64(typed)) {
				values[key] = fmt.Sprintf("%d", int64(typed))
			} else {
				values[key] = fmt.Sprintf("%v", typed)
			}
		default:
			values[key] = fmt.Sprintf("%v", v)
		}
	}
	return values
}
