// Configuration lives in command line flags declared next to the code that reads them. A single optional config
// file, a flat JSON object keyed by flag name, can override their defaults:
//
//	{"log_level": "debug", "dll_strict_checks": true}
//
// Values given explicitly on the command line win over the file.

package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/nobletooth/ring/pkg/utils"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var configFilePath = flag.String("config_file", "", "Path to the JSON configuration file. Empty skips it.")

var ErrUnsupportedValue = errors.New("unsupported config value")

// InitFlags parses the command line, applies the config file given by -config_file and configures logging.
// It should be called after defining all flags and before using them.
func InitFlags() {
	flag.Parse()
	defer utils.InitLogging()

	if *configFilePath == "" {
		slog.Info("Config file not specified. Skipping config initialization.")
		return
	}
	conf, err := loadConfig(*configFilePath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Config file does not exist.", "path", *configFilePath, "error", err)
		return
	}
	if err != nil { // If the config file cannot be used, we skip loading and use default flag values.
		slog.Error("Failed to load config file.", "path", *configFilePath, "error", err)
		return
	}
	if err := setConfigFlags(conf, explicitFlags()); err != nil {
		slog.Error("Failed to set flags from config file.", "error", err)
	}
}

// loadConfig reads and decodes the config file at path.
func loadConfig(path string) (*structpb.Struct, error) {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	conf := new(structpb.Struct)
	if err := protojson.Unmarshal(configBytes, conf); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return conf, nil
}

// explicitFlags returns the names of flags that were given on the command line.
func explicitFlags() map[ /*flagName*/ string]struct{} {
	explicit := make(map[string]struct{})
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = struct{}{} })
	return explicit
}

// valueToString converts a config value to its flag string form. Nested objects and lists are not supported.
func valueToString(v *structpb.Value) (string, error) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue), nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, kind)
	}
}

// setConfigFlags sets every entry of conf to the flag of the same name, except for the flags in `skip`.
// Entries are applied in name order so that errors are deterministic.
func setConfigFlags(conf *structpb.Struct, skip map[string]struct{}) error {
	fields := conf.GetFields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, flagName := range names {
		if _, isSkipped := skip[flagName]; isSkipped {
			continue
		}
		stringValue, err := valueToString(fields[flagName])
		if err != nil {
			return fmt.Errorf("failed to convert %s: %w", flagName, err)
		}
		if err := flag.Set(flagName, stringValue); err != nil {
			return fmt.Errorf("failed to set flag %s: %w", flagName, err)
		}
	}
	return nil
}

// CollectUnknownEntries returns an error for each entry of the config file at path that names no registered flag.
func CollectUnknownEntries(path string) []error {
	conf, err := loadConfig(path)
	if err != nil {
		return []error{err}
	}
	errs := make([]error, 0)
	for name := range conf.GetFields() {
		if flag.Lookup(name) == nil {
			errs = append(errs, fmt.Errorf("config entry '%s' matches no registered flag", name))
		}
	}
	return errs
}
