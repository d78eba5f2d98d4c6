package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// IDFlag starts a data id group. Every following token up to the next flag
// belongs to the group.
const IDFlag = "--id"

// Override is one config override in command-line order: either a file or
// a single path=value assignment.
type Override struct {
	File       string
	Assignment string
}

// Options holds everything parsed from the argument list.
type Options struct {
	Tag        string `validate:"required"`
	InputRoot  string `validate:"required"`
	CalibRoot  string
	OutputRoot string

	IDGroups  [][]string
	Overrides []Override

	LogLevel     string `validate:"oneof=debug info warn error"`
	LogFormat    string `validate:"oneof=text json pretty"`
	LogFlagsSet  bool
	ShowConfig   bool
	ShowMetadata bool
}

var validate = validator.New()

// Parse processes the arguments of a command-line task. It returns the
// parsed options, a boolean indicating that the program should exit cleanly
// (help was printed), or an *ExitError. Roots missing from the arguments are
// taken from env.
func Parse(name string, args []string, env Roots, output io.Writer) (*Options, bool, error) {
	slog.Debug("CLI parser started.", "task", name)

	// 1. Pull the --id groups out; their values may contain anything.
	rest, groups, err := splitIDGroups(args)
	if err != nil {
		return nil, false, usageError(err.Error())
	}

	// 2. Flags, keeping the relative order of the override flags.
	opts := &Options{IDGroups: groups}
	fs := newFlagSet(name, opts, output)
	err = fs.ParseAll(rest, func(flag *pflag.Flag, value string) error {
		switch flag.Name {
		case "config":
			opts.Overrides = append(opts.Overrides, Override{Assignment: value})
		case "config-file":
			opts.Overrides = append(opts.Overrides, Override{File: value})
		}
		return fs.Set(flag.Name, value)
	})
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError(err.Error())
	}

	// 3. Positionals: tag, then the input root.
	switch pos := fs.Args(); len(pos) {
	case 0:
		fs.Usage()
		return nil, false, usageError("missing repository tag")
	case 1:
		opts.Tag = pos[0]
	case 2:
		opts.Tag, opts.InputRoot = pos[0], pos[1]
	default:
		return nil, false, usageError(fmt.Sprintf("unexpected arguments: %s", strings.Join(pos[2:], " ")))
	}

	// 4. Environment fallbacks. The output root defaults to the input root.
	if opts.InputRoot == "" {
		opts.InputRoot = env.Input
	}
	if opts.CalibRoot == "" {
		opts.CalibRoot = env.Calib
	}
	if opts.OutputRoot == "" {
		opts.OutputRoot = env.Output
	}
	if opts.OutputRoot == "" {
		opts.OutputRoot = opts.InputRoot
	}
	opts.LogFlagsSet = fs.Changed("log-level") || fs.Changed("log-format")
	opts.LogLevel = strings.ToLower(opts.LogLevel)
	opts.LogFormat = strings.ToLower(opts.LogFormat)

	if err := validate.Struct(opts); err != nil {
		return nil, false, usageError(validationMessage(err))
	}

	slog.Debug("CLI parser finished successfully.", "tag", opts.Tag, "input", opts.InputRoot, "id_groups", len(opts.IDGroups))
	return opts, false, nil
}

func newFlagSet(name string, opts *Options, output io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(output, `
Usage:
  %s <repo-tag> [input-root] [options]

Arguments:
  repo-tag
    Tag of the repository to read.
  input-root
    Root of the input repository (default: $PIPE_INPUT_ROOT).

Options:
  --id key=value [key=value ...]
    	Data id selector; may be repeated. "a^b" lists values, "lo..hi" is an integer range.
`, name)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.OutputRoot, "output", "", "Output root (default: $PIPE_OUTPUT_ROOT, then the input root).")
	fs.StringVar(&opts.CalibRoot, "calib", "", "Calibration root (default: $PIPE_CALIB_ROOT).")
	fs.StringArray("config", nil, "Config override path=value; may be repeated.")
	fs.StringArray("config-file", nil, "HCL config override file; may be repeated.")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Logging level: debug, info, warn or error.")
	fs.StringVar(&opts.LogFormat, "log-format", "text", "Log output format: text, json or pretty.")
	fs.BoolVar(&opts.ShowConfig, "show-config", false, "Print the final config as HCL before running.")
	fs.BoolVar(&opts.ShowMetadata, "show-metadata", false, "Print the task metadata as JSON after running.")
	return fs
}

// splitIDGroups removes every --id group from args.
func splitIDGroups(args []string) ([]string, [][]string, error) {
	var rest []string
	var groups [][]string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		var group []string
		switch {
		case arg == IDFlag:
		case strings.HasPrefix(arg, IDFlag+"="):
			group = append(group, strings.TrimPrefix(arg, IDFlag+"="))
		default:
			rest = append(rest, arg)
			continue
		}
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			group = append(group, args[i])
		}
		if len(group) == 0 {
			return nil, nil, fmt.Errorf("%s needs at least one key=value", IDFlag)
		}
		groups = append(groups, group)
	}
	return rest, groups, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("missing %s", flagName(fe.Field())))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("invalid %s %q: must be one of %s", flagName(fe.Field()), fe.Value(), fe.Param()))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return strings.Join(msgs, "; ")
}

func flagName(field string) string {
	switch field {
	case "Tag":
		return "repository tag"
	case "InputRoot":
		return "input root (argument or $PIPE_INPUT_ROOT)"
	case "LogLevel":
		return "log-level"
	case "LogFormat":
		return "log-format"
	}
	return field
}
