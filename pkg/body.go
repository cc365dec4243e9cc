package pkg

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// BodyParams reads request body parameters regardless of whether the client
// sent them form-encoded or as a JSON object. JSON scalar values are
// flattened to strings, so callers coerce types themselves.
func BodyParams(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, ContentType.JSON) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		for key, value := range body {
			switch v := value.(type) {
			case string:
				params[key] = v
			case float64:
				params[key] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				params[key] = strconv.FormatBool(v)
			case nil:
				params[key] = ""
			default:
				params[key] = fmt.Sprintf("%v", v)
			}
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params, nil
}
