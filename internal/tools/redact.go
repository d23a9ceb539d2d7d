package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yolodolo42/plasma-mcp/internal/codec"
)

const (
	redacted = "***REDACTED***"
	// Calldata longer than this many hex characters is shortened in logs.
	maxLoggedData = 74
)

// secretFields never reach the log, whatever their value.
var secretFields = map[string]bool{
	"password":    true,
	"passphrase":  true,
	"private_key": true,
	"privatekey":  true,
	"mnemonic":    true,
	"secret":      true,
	"api_key":     true,
	"apikey":      true,
}

// hashFields legitimately carry 32-byte hex values.
var hashFields = map[string]bool{
	"txhash": true,
	"hash":   true,
}

// RedactJSONArgs prepares tool arguments for logging: secret fields are
// masked, 32-byte hex strings outside hash fields are treated as leaked keys,
// and long calldata is shortened. Input that is not JSON is returned as is.
func RedactJSONArgs(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	b, err := json.Marshal(scrub("", v))
	if err != nil {
		return raw
	}
	return string(b)
}

func scrub(field string, v any) any {
	key := strings.ToLower(field)
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if secretFields[strings.ToLower(k)] {
				out[k] = redacted
				continue
			}
			out[k] = scrub(k, vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = scrub(field, t[i])
		}
		return out
	case string:
		if looksLikeKey(t) && !hashFields[key] {
			return redacted
		}
		if key == "data" && len(t) > maxLoggedData {
			return fmt.Sprintf("%s...(%d bytes)", t[:maxLoggedData], (len(t)-2)/2)
		}
		return t
	default:
		return v
	}
}

func looksLikeKey(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return codec.IsTxHash(s)
}
