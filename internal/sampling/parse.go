package sampling

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Recognized sampler configuration keys. These follow the OTEL SDK
// environment convention (OTEL_TRACES_SAMPLER / OTEL_TRACES_SAMPLER_ARG).
const (
	KeyAlwaysOn                = "always_on"
	KeyAlwaysOff               = "always_off"
	KeyTraceIDRatio            = "traceidratio"
	KeyParentBasedAlwaysOn     = "parentbased_always_on"
	KeyParentBasedAlwaysOff    = "parentbased_always_off"
	KeyParentBasedTraceIDRatio = "parentbased_traceidratio"
	KeyRateLimiting            = "ratelimiting"
)

// Parse builds a sampler from a configuration key and optional argument.
// The argument is a ratio for the traceidratio variants (default 1.0) and a
// per-second rate for ratelimiting.
func Parse(name, arg string) (Sampler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", KeyParentBasedAlwaysOn:
		return ParentBased(AlwaysOn()), nil
	case KeyAlwaysOn:
		return AlwaysOn(), nil
	case KeyAlwaysOff:
		return AlwaysOff(), nil
	case KeyParentBasedAlwaysOff:
		return ParentBased(AlwaysOff()), nil
	case KeyTraceIDRatio:
		ratio, err := parseRatio(arg)
		if err != nil {
			return nil, err
		}
		return TraceIDRatio(ratio), nil
	case KeyParentBasedTraceIDRatio:
		ratio, err := parseRatio(arg)
		if err != nil {
			return nil, err
		}
		return ParentBased(TraceIDRatio(ratio)), nil
	case KeyRateLimiting:
		rate := 100.0
		if arg != "" {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil || v < 0 {
				return nil, fmt.Errorf("invalid rate limiting argument %q", arg)
			}
			rate = v
		}
		return NewRateLimiting(rate, rate), nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", name)
	}
}

// FromEnv builds a sampler from OTEL_TRACES_SAMPLER and
// OTEL_TRACES_SAMPLER_ARG, defaulting to parentbased_always_on.
func FromEnv() (Sampler, error) {
	return Parse(os.Getenv("OTEL_TRACES_SAMPLER"), os.Getenv("OTEL_TRACES_SAMPLER_ARG"))
}

func parseRatio(arg string) (float64, error) {
	if arg == "" {
		return 1.0, nil
	}
	ratio, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sampler ratio %q: %w", arg, err)
	}
	return ratio, nil
}
