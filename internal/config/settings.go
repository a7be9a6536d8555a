package config

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bootlox/pbl/internal/errors"
)

const (
	// DefaultDir is where the sysconfig sources live
	DefaultDir = "/etc/sysconfig"

	// BootloaderSource yields LOADER_TYPE
	BootloaderSource = "bootloader"
	// LanguageSource yields RC_LANG
	LanguageSource = "language"

	// EnvPrefix marks settings exposed on child process environments
	EnvPrefix = "SYS__"
)

// Settings keys consumed by the dispatcher itself
const (
	loaderTypeKey = "BOOTLOADER__LOADER_TYPE"
	languageKey   = "LANGUAGE__RC_LANG"
)

// sysconfig lines are UPPERCASE_KEY=value; everything else is comment or
// shell noise and is ignored. This is deliberately not a general parser.
var settingRE = regexp.MustCompile(`^([A-Z_][A-Z0-9_]*)=(.*)$`)

// Settings is the flat namespace of every key/value pair read from the
// sysconfig sources. It is populated once at startup and read-only
// afterwards; children see it only through ChildEnv.
type Settings struct {
	dir    string
	values map[string]string
}

// NewSettings creates an empty namespace reading sources under dir
func NewSettings(dir string) *Settings {
	if dir == "" {
		dir = DefaultDir
	}
	return &Settings{
		dir:    dir,
		values: make(map[string]string),
	}
}

// Load reads one named source into the namespace under
// "<UPPERCASE-SOURCE>__<KEY>" keys. A missing source is silently treated
// as empty; a source that exists but cannot be read is an error. If a
// source defines a key twice the last value wins.
func (s *Settings) Load(source string) error {
	path := filepath.Join(s.dir, source)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewConfigReadError(path, err)
	}
	defer f.Close()

	prefix := strings.ToUpper(source) + "__"
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := settingRE.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		s.values[prefix+m[1]] = parseValue(m[2])
	}
	if err := scanner.Err(); err != nil {
		return errors.NewConfigReadError(path, err)
	}

	return nil
}

// parseValue trims trailing whitespace and strips one layer of matching
// surrounding quotes. No further escaping, matching the legacy format.
func parseValue(v string) string {
	v = strings.TrimRight(v, " \t")
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			v = v[1 : len(v)-1]
		}
	}
	return v
}

// Get returns the value for a namespace key, or "" if unset
func (s *Settings) Get(key string) string {
	return s.values[key]
}

// Lookup returns the value for a namespace key and whether it was set
func (s *Settings) Lookup(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// LoaderType returns the configured bootloader name, "" if none
func (s *Settings) LoaderType() string {
	return s.values[loaderTypeKey]
}

// Language returns the configured system language, "" if none
func (s *Settings) Language() string {
	return s.values[languageKey]
}

// Map returns a copy of the namespace, for diagnostic dumps
func (s *Settings) Map() map[string]string {
	m := make(map[string]string, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// ChildEnv builds the environment for a backend script from a base
// environment (usually os.Environ). Every setting is exposed as
// SYS__<SOURCE>__<KEY>; LC_MESSAGES and LC_ALL are cleared, and LANG is
// forced to the configured language when one is present, so children
// behave locale-consistently.
func (s *Settings) ChildEnv(base []string) []string {
	lang := s.Language()

	env := make([]string, 0, len(base)+len(s.values)+1)
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if name == "LC_MESSAGES" || name == "LC_ALL" {
			continue
		}
		if name == "LANG" && lang != "" {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, EnvPrefix+k+"="+s.values[k])
	}

	if lang != "" {
		env = append(env, "LANG="+lang)
	}

	return env
}
