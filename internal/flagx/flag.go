// Package flagx lets several flag sets share one command line. Each consumer
// picks out only the flags it owns, so the config loaders can parse their
// subset without tripping over each other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// Filter returns the subset of args that belongs to the given flag names,
// preserving order. Both "-f value" and "-f=value" forms are recognised.
// A value is only consumed for "-f value" when the next argument does not
// itself start with '-'.
func Filter(args []string, names ...string) []string {
	owned := make(map[string]bool, len(names))
	for _, n := range names {
		owned[n] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, ok := strings.Cut(arg, "="); ok {
			if owned[name] {
				out = append(out, arg)
			}
			continue
		}

		if !owned[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// ConfigPath extracts the JSON config path given with -c or -config.
// Returns "" when neither is present.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(Filter(args, "-c", "-config", "--config"))

	return path
}
