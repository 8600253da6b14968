// Package parts defines the immutable Part model, its YAML decoding, and
// dependency-graph validation (spec §3, §4.2).
package parts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	engerrors "github.com/canonical/craft-parts-go/internal/errors"
)

// Source describes a part's source location and type-specific refinement
// fields (spec §3).
type Source struct {
	Location    string `yaml:"source,omitempty"`
	Type        string `yaml:"source-type,omitempty"`
	Branch      string `yaml:"source-branch,omitempty"`
	Tag         string `yaml:"source-tag,omitempty"`
	Commit      string `yaml:"source-commit,omitempty"`
	Depth       int    `yaml:"source-depth,omitempty"`
	Subdir      string `yaml:"source-subdir,omitempty"`
	Submodules  bool   `yaml:"source-submodules,omitempty"`
	Checksum    string `yaml:"source-checksum,omitempty"`
	Channel     string `yaml:"source-channel,omitempty"`
}

// OrganizeEntry is one ordered build-relative -> install-relative mapping.
type OrganizeEntry struct {
	From string
	To   string
}

// PermissionRule applies ownership and mode to paths in the part's install
// tree matching the Path glob, at the end of BUILD after organize (spec
// §4.10). An empty Path matches every path.
type PermissionRule struct {
	Path  string `yaml:"path,omitempty"`
	Owner *int   `yaml:"owner,omitempty"`
	Group *int   `yaml:"group,omitempty"`
	Mode  string `yaml:"mode,omitempty"`
}

// Filter is a stage/prime/overlay glob filter list: entries with a leading
// "-" are exclusions (spec §4.10).
type Filter []string

// Includes returns the non-exclude patterns.
func (f Filter) Includes() []string {
	var out []string
	for _, p := range f {
		if !strings.HasPrefix(p, "-") {
			out = append(out, p)
		}
	}
	return out
}

// Excludes returns the exclude patterns (leading "-" stripped).
func (f Filter) Excludes() []string {
	var out []string
	for _, p := range f {
		if strings.HasPrefix(p, "-") {
			out = append(out, strings.TrimPrefix(p, "-"))
		}
	}
	return out
}

// Part is the immutable, normalized representation of a single build unit.
type Part struct {
	Name   string `yaml:"-"`
	Plugin string `yaml:"plugin,omitempty"`

	Source Source `yaml:",inline"`

	BuildPackages   []string `yaml:"build-packages,omitempty"`
	BuildSnaps      []string `yaml:"build-snaps,omitempty"`
	StagePackages   []string `yaml:"stage-packages,omitempty"`
	StageSnaps      []string `yaml:"stage-snaps,omitempty"`
	PrimePackages   []string `yaml:"prime-packages,omitempty"`
	OverlayPackages []string `yaml:"overlay-packages,omitempty"`
	OverlayScript   string   `yaml:"overlay-script,omitempty"`

	StageFilter   Filter `yaml:"stage,omitempty"`
	PrimeFilter   Filter `yaml:"prime,omitempty"`
	OverlayFilter Filter `yaml:"overlay,omitempty"`

	Organize []OrganizeEntry `yaml:"-"`

	Scriptlets map[string]string `yaml:"-"`

	After            []string          `yaml:"after,omitempty"`
	DisableParallel  bool              `yaml:"disable-parallel,omitempty"`
	Permissions      []PermissionRule  `yaml:"permissions,omitempty"`

	// Extra holds plugin-declared keys not recognized by the core schema,
	// preserved verbatim for the plugin to interpret.
	Extra map[string]interface{} `yaml:"-"`
}

var reservedSeparators = []string{"/", "\\"}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+._-]*$`)

// ValidateName checks a part name against spec §4.2's rules: non-empty, no
// whitespace or path separators.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("part name must not be empty")
	}
	for _, sep := range reservedSeparators {
		if strings.Contains(name, sep) {
			return fmt.Errorf("part name %q must not contain %q", name, sep)
		}
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("part name %q must not contain whitespace", name)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("part name %q contains disallowed characters", name)
	}
	return nil
}

// ParsePermissionMode parses a permission rule's octal mode string.
func ParsePermissionMode(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q: %w", s, err)
	}
	return uint32(v), nil
}

// Validate checks a single part's self-consistency: name rules, owner/group
// atomicity of permission rules, and organize destinations referencing only
// the default partition at the source side (spec §3: "organize source paths
// belong to the default partition").
func (p *Part) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return &engerrors.InvalidPartsError{Part: p.Name, Field: "name", Message: err.Error()}
	}
	for _, rule := range p.Permissions {
		if (rule.Owner == nil) != (rule.Group == nil) {
			return &engerrors.InvalidPartsError{
				Part: p.Name, Field: "permissions",
				Message: "owner and group must be set together",
			}
		}
		if _, err := ParsePermissionMode(rule.Mode); err != nil {
			return &engerrors.InvalidPartsError{Part: p.Name, Field: "permissions", Message: err.Error()}
		}
	}
	for _, entry := range p.Organize {
		if strings.HasPrefix(entry.From, "(") {
			return &engerrors.InvalidPartsError{
				Part: p.Name, Field: "organize",
				Message: fmt.Sprintf("organize source %q must belong to the default partition", entry.From),
			}
		}
	}
	return nil
}
