package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/xtding233/loto-backend/internal/config"
)

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func parseUint(r *http.Request, key string) (uint64, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func parseBool(r *http.Request, key string) (bool, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return false, false, ""
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false, "invalid " + key
	}
	return v, true, ""
}

// parseIntList reads "15,16,16" style lists.
func parseIntList(r *http.Request, key string) ([]int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, false, ""
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false, "invalid " + key
		}
		out = append(out, v)
	}
	return out, true, ""
}

// overrides collects the optional generator/sampler query params.
func overrides(r *http.Request) (config.Overrides, string) {
	var o config.Overrides
	for _, f := range []struct {
		key string
		dst **int
	}{
		{"count", &o.Count},
		{"size", &o.Size},
		{"window", &o.FrequencyWindow},
		{"target_sum", &o.TargetSum},
		{"tier", &o.Tier},
		{"top", &o.TopN},
		{"budget", &o.Budget},
	} {
		v, ok, msg := parseInt(r, f.key)
		if msg != "" {
			return o, msg
		}
		if ok {
			*f.dst = &v
		}
	}
	for _, f := range []struct {
		key string
		dst **bool
	}{
		{"avoid_last", &o.AvoidLastDraw},
		{"balance_sum", &o.BalanceSum},
	} {
		v, ok, msg := parseBool(r, f.key)
		if msg != "" {
			return o, msg
		}
		if ok {
			*f.dst = &v
		}
	}
	seed, ok, msg := parseUint(r, "seed")
	if msg != "" {
		return o, msg
	}
	if ok {
		o.Seed = &seed
	}
	return o, ""
}
