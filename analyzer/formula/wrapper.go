package formula

import (
	"regexp"
	"strings"
)

// wrapperExpr matches derivation wrappers such as none:Category:nk, sum:Sales:qk or pcto:sum:Sales:qk:2
var wrapperExpr = regexp.MustCompile(`^([a-z][a-z0-9]*):(.+):([a-z]{2})(?::\d+)?$`)

var derivations = map[string]bool{
	"none": true, "sum": true, "avg": true, "min": true, "max": true, "cnt": true, "ctd": true,
	"med": true, "attr": true, "usr": true, "var": true, "stdev": true, "cntd": true,
	"yr": true, "qr": true, "mn": true, "wk": true, "dy": true, "hr": true, "mi": true, "sc": true,
	"tyr": true, "tqr": true, "tmn": true, "twk": true, "tdy": true, "thr": true, "tmi": true,
	"pcto": true, "pcdf": true, "diff": true, "rank": true, "run": true, "win": true, "pctrank": true,
}

// StripWrapper removes derivation and type wrappers around a field name.
// Names that do not carry a known wrapper are returned unchanged.
func StripWrapper(name string) string {
	match := wrapperExpr.FindStringSubmatch(name)
	if match == nil || !derivations[match[1]] {
		return name
	}
	inner := match[2]
	for {
		prefix, rest, ok := strings.Cut(inner, ":")
		if !ok || !derivations[prefix] || rest == "" {
			return inner
		}
		inner = rest
	}
}
