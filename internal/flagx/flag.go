// Package flagx lets several flag consumers share one command line. Config
// loaders pick their own flags with FilterArgs; the command framework gets
// the remainder from StripArgs.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigFileFlags name the JSON config file.
var ConfigFileFlags = []string{"-c", "-config"}

// split partitions args into the listed flags (with their values) and
// everything else, preserving order in both.
//
// Recognized forms are "-f value" and "-f=value". A value is taken from the
// next argument only if it does not start with '-'.
func split(args []string, flags []string) (matched, rest []string) {
	allowed := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		allowed[f] = struct{}{}
	}

	matched = make([]string, 0, len(args))
	rest = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				matched = append(matched, arg)
			} else {
				rest = append(rest, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			rest = append(rest, arg)
			continue
		}
		matched = append(matched, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			matched = append(matched, args[i+1])
			i++
		}
	}
	return matched, rest
}

// FilterArgs returns only the listed flags and their values.
func FilterArgs(args []string, flags []string) []string {
	matched, _ := split(args, flags)
	return matched
}

// StripArgs returns args without the listed flags and their values.
func StripArgs(args []string, flags []string) []string {
	_, rest := split(args, flags)
	return rest
}

// JsonConfigFlags returns the config file named by -c or -config in
// os.Args, or "" when neither is present.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], ConfigFileFlags)

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
