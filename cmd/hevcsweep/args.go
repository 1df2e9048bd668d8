package main

import "strings"

// legacyFlags are the single-dash long flags accepted for compatibility
// with older invocations ("-limit 5", "-size=10G").
var legacyFlags = []string{"limit", "size"}

// normalizeLegacyArgs rewrites single-dash long flags to their double-dash
// spelling before cobra parses them. Arguments after "--" are untouched.
func normalizeLegacyArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, arg := range out {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		for _, legacy := range legacyFlags {
			if name == legacy {
				out[i] = "-" + arg
				break
			}
		}
	}
	return out
}
