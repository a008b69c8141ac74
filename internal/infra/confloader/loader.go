package confloader

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the environment prefix of memkv-server settings.
const DefaultEnvPrefix = "MEMKV_"

// Loader merges the file, environment and flag layers into a struct.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	flags     map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment prefix. MEMKV_CLI_ and MEMKV_ keep
// the CLI and server settings apart.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file. An empty path skips the file layer;
// a missing file is an error.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithFlags sets flag values keyed by dotted path ("server.port"). Nil
// values are dropped so unset flags never mask the other layers.
func WithFlags(flags map[string]any) Option {
	return func(l *Loader) {
		l.flags = flags
	}
}

// NewLoader returns a Loader reading DefaultEnvPrefix variables.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type layer struct {
	name     string
	provider koanf.Provider
	parser   koanf.Parser
}

func (l *Loader) layers() []layer {
	var ls []layer
	if l.filePath != "" {
		ls = append(ls, layer{"file " + l.filePath, file.Provider(l.filePath), yaml.Parser()})
	}
	ls = append(ls, layer{"env " + l.envPrefix + "*", env.ProviderWithValue(l.envPrefix, ".", l.envVar), nil})
	if len(l.flags) > 0 {
		ls = append(ls, layer{"flags", newFlagProvider(l.flags), nil})
	}
	return ls
}

// Load applies the layers in order, later ones winning, and unmarshals
// the result into target by koanf tags. Fields no layer sets keep the
// values target already holds, which is how defaults are supplied.
// Durations parse from strings such as "30s" and lists from comma
// separated strings.
func (l *Loader) Load(target any) error {
	for _, ly := range l.layers() {
		if err := l.k.Load(ly.provider, ly.parser); err != nil {
			return fmt.Errorf("load %s: %w", ly.name, err)
		}
	}
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           target,
		},
	}
	if err := l.k.UnmarshalWithConf("", target, conf); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// envVar maps MEMKV_SERVER_IDLE_TIMEOUT to server.idle_timeout: the first
// underscore after the prefix separates section from key. Empty values
// are skipped so an exported but blank variable does not clear a setting.
func (l *Loader) envVar(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	return envKey(l.envPrefix, name), value
}

func envKey(prefix, name string) string {
	s := strings.ToLower(strings.TrimPrefix(name, prefix))
	return strings.Replace(s, "_", ".", 1)
}
