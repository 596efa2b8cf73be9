// Package flagx splits a single command line between several consumers: the
// configuration layer reads its own flags, the command tree gets the rest.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the arguments that belong to allowedFlags, together with
// their values.
//
// Both "-c conf.json" and "-c=conf.json" forms are recognised. A value is
// taken from the next argument only when that argument does not itself start
// with a dash.
func FilterArgs(args []string, allowedFlags []string) []string {
	kept, _ := split(args, allowedFlags)
	return kept
}

// StripArgs is the complement of FilterArgs: it returns every argument that
// FilterArgs would not keep, in order.
func StripArgs(args []string, allowedFlags []string) []string {
	_, rest := split(args, allowedFlags)
	return rest
}

func split(args []string, allowedFlags []string) (kept, rest []string) {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	kept = make([]string, 0, len(args))
	rest = make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				kept = append(kept, arg)
			} else {
				rest = append(rest, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			rest = append(rest, arg)
			continue
		}

		kept = append(kept, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			kept = append(kept, args[i+1])
			i++
		}
	}

	return kept, rest
}

// ConfigFlagNames are the flags that name a JSON config file.
var ConfigFlagNames = []string{"-c", "-config"}

// JsonConfigFlags extracts the config file path given via -c or -config in
// os.Args. It returns an empty string when neither is present.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], ConfigFlagNames)

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
