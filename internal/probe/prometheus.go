package probe

import (
	"strconv"
	"strings"
)

// metricMappings translates the service's Prometheus metric names onto
// the flat keys the rest of the monitor uses.
var metricMappings = map[string]string{
	"llamacpp:prompt_tokens_seconds":    "prompt_tokens_per_sec",
	"llamacpp:predicted_tokens_seconds": "predicted_tokens_per_sec",
	"llamacpp:requests_processing":      "requests_processing",
	"llamacpp:requests_deferred":        "requests_deferred",
	"llamacpp:n_decode_total":           "n_decode_total",
}

// ParseMetrics extracts the mapped metrics from Prometheus text
// exposition format. Unrecognized metrics, comments, and malformed lines
// are skipped; parsing never fails.
func ParseMetrics(text string) map[string]float64 {
	result := make(map[string]float64)
	for _, line := range strings.Split(text, "\n") {
		name, value, ok := parseLine(line)
		if !ok {
			continue
		}
		if target, mapped := metricMappings[name]; mapped {
			result[target] = value
		}
	}
	return result
}

// parseLine parses a single "name{labels} value" exposition line,
// discarding labels. Comment and blank lines yield ok=false.
func parseLine(line string) (name string, value float64, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", 0, false
	}

	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return "", 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return "", 0, false
	}

	name = parts[0]
	if idx := strings.IndexByte(name, '{'); idx >= 0 {
		name = name[:idx]
	}
	return name, value, true
}
