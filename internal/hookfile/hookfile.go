// Package hookfile parses hook definitions from their YAML on-disk
// format into the engine's data model.
package hookfile

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/watzon/hookline/internal/hook"
)

// File is the root of a hooks YAML document.
type File struct {
	Hooks []Entry `yaml:"hooks"`
}

// Entry is one hook record as written by users. Optional fields keep
// pointer types so absence is distinguishable from the zero value.
type Entry struct {
	Name         string     `yaml:"name"`
	Event        string     `yaml:"event"`
	Tool         string     `yaml:"tool,omitempty"`
	Tools        []string   `yaml:"tools,omitempty"`
	Command      string     `yaml:"command"`
	Enabled      *bool      `yaml:"enabled,omitempty"`
	Interactive  bool       `yaml:"interactive,omitempty"`
	Advisory     bool       `yaml:"advisory,omitempty"`
	Timeout      int        `yaml:"timeout,omitempty"`
	DependsOn    string     `yaml:"depends_on,omitempty"`
	MatchPattern string     `yaml:"match_pattern,omitempty"`
	MatchRegex   string     `yaml:"match_regex,omitempty"`
	When         string     `yaml:"when,omitempty"`
	Conditions   Conditions `yaml:"conditions,omitempty"`
}

// Conditions is the YAML condition map. Each present key becomes one
// condition variant.
type Conditions struct {
	FileExtension string `yaml:"file_extension,omitempty"`
	PathPrefix    string `yaml:"path_prefix,omitempty"`
	FileSize      string `yaml:"file_size,omitempty"`
}

// Load reads and parses a hooks file. Unknown fields are rejected so
// typos surface at load time instead of silently disabling a hook.
func Load(path string) ([]hook.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hooks file: %w", err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return defs, nil
}

// Parse converts YAML bytes into hook definitions, preserving document
// order.
func Parse(data []byte) ([]hook.Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	defs := make([]hook.Definition, 0, len(file.Hooks))
	for i, entry := range file.Hooks {
		def, err := entry.definition()
		if err != nil {
			return nil, fmt.Errorf("hooks[%d]: %w", i, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (e Entry) definition() (hook.Definition, error) {
	var def hook.Definition

	if strings.TrimSpace(e.Name) == "" {
		return def, fmt.Errorf("missing required field 'name'")
	}
	if e.Event == "" {
		return def, fmt.Errorf("hook %q: missing required field 'event'", e.Name)
	}
	event := hook.EventKind(e.Event)
	if !event.IsValid() {
		return def, fmt.Errorf("hook %q: invalid event %q", e.Name, e.Event)
	}
	if e.Command == "" {
		return def, fmt.Errorf("hook %q: missing required field 'command'", e.Name)
	}
	if e.Timeout < 0 {
		return def, fmt.Errorf("hook %q: timeout must be positive", e.Name)
	}

	tools := e.Tools
	if e.Tool != "" {
		tools = append([]string{e.Tool}, tools...)
	}

	enabled := true
	if e.Enabled != nil {
		enabled = *e.Enabled
	}

	conditions, err := e.Conditions.conditions()
	if err != nil {
		return def, fmt.Errorf("hook %q: %w", e.Name, err)
	}

	def = hook.Definition{
		Name:         e.Name,
		Event:        event,
		Tools:        tools,
		Command:      e.Command,
		Enabled:      enabled,
		Interactive:  e.Interactive,
		Advisory:     e.Advisory,
		Timeout:      time.Duration(e.Timeout) * time.Second,
		Conditions:   conditions,
		DependsOn:    e.DependsOn,
		MatchPattern: e.MatchPattern,
		MatchRegex:   e.MatchRegex,
		When:         e.When,
	}
	return def, nil
}

func (c Conditions) conditions() ([]hook.Condition, error) {
	var conds []hook.Condition

	if c.FileExtension != "" {
		conds = append(conds, hook.Condition{
			Kind: hook.CondFileExtension,
			Ext:  strings.TrimPrefix(c.FileExtension, "."),
		})
	}
	if c.PathPrefix != "" {
		conds = append(conds, hook.Condition{
			Kind:   hook.CondPathPrefix,
			Prefix: c.PathPrefix,
		})
	}
	if c.FileSize != "" {
		op, bytes, err := ParseSizeLimit(c.FileSize)
		if err != nil {
			return nil, fmt.Errorf("condition 'file_size': %w", err)
		}
		conds = append(conds, hook.Condition{
			Kind:  hook.CondFileSize,
			Op:    op,
			Bytes: bytes,
		})
	}
	return conds, nil
}

var sizeLimitRe = regexp.MustCompile(`(?i)^(<=|>=|<|>)?\s*(\d+)\s*([KMGT]?B)$`)

// ParseSizeLimit parses strings like "100KB", "<=1MB" or ">512B" into
// a comparison operator and a byte count. A missing operator means
// "at most" to match how size limits read in a hooks file.
func ParseSizeLimit(s string) (hook.SizeOp, int64, error) {
	m := sizeLimitRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", 0, fmt.Errorf("invalid size %q (use forms like 100KB, <=1MB, >512B)", s)
	}

	op := hook.SizeOp(m[1])
	if op == "" {
		op = hook.SizeLessEqual
	}

	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	var unit int64
	switch strings.ToUpper(m[3]) {
	case "B":
		unit = 1
	case "KB":
		unit = 1 << 10
	case "MB":
		unit = 1 << 20
	case "GB":
		unit = 1 << 30
	case "TB":
		unit = 1 << 40
	}

	return op, n * unit, nil
}
