package cli

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of the environment variables naming data roots.
const EnvPrefix = "PIPE_"

// Roots are the data roots taken from the environment:
// PIPE_INPUT_ROOT, PIPE_CALIB_ROOT and PIPE_OUTPUT_ROOT.
type Roots struct {
	Input  string `koanf:"input_root"`
	Calib  string `koanf:"calib_root"`
	Output string `koanf:"output_root"`
}

// LoadRoots reads the data roots from the process environment. Empty
// variables count as unset.
func LoadRoots() (Roots, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			if value == "" {
				return "", nil
			}
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil)
	if err != nil {
		return Roots{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var roots Roots
	if err := k.Unmarshal("", &roots); err != nil {
		return Roots{}, fmt.Errorf("failed to decode environment roots: %w", err)
	}
	return roots, nil
}
