package parts

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	engerrors "github.com/canonical/craft-parts-go/internal/errors"
)

// coreKeys are the schema keys the engine itself recognizes; anything else
// in a part mapping is either a plugin-declared key (preserved in Extra)
// or, if the plugin doesn't declare it, a schema error (spec §4.2).
var coreKeys = map[string]bool{
	"plugin": true, "source": true, "source-type": true, "source-branch": true,
	"source-tag": true, "source-commit": true, "source-depth": true,
	"source-subdir": true, "source-submodules": true, "source-checksum": true,
	"source-channel": true, "build-packages": true, "build-snaps": true,
	"stage-packages": true, "stage-snaps": true, "prime-packages": true,
	"overlay-packages": true, "overlay-script": true, "stage": true,
	"prime": true, "overlay": true, "organize": true, "after": true,
	"disable-parallel": true, "permissions": true,
}

var scriptletKeyPattern = map[string]bool{
	"override-pull": true, "override-overlay": true, "override-build": true,
	"override-stage": true, "override-prime": true,
}

// Document is the top-level `parts:` mapping (spec §6).
type Document struct {
	Parts map[string]yaml.Node `yaml:"parts"`
}

// DecodeOptions controls which extra keys a plugin declares as valid for a
// given part, so unknown-key rejection can account for plugin-extended
// schemas (spec §4.2).
type DecodeOptions struct {
	// PluginKeys maps a plugin name to the set of extra keys it declares.
	PluginKeys map[string][]string
}

// Decode parses a parts YAML document into a name-ordered slice of Parts,
// validating each part's schema and structure. Unknown keys are rejected
// unless declared by the part's plugin.
func Decode(yamlBytes []byte, opts DecodeOptions) ([]*Part, error) {
	var doc Document
	if err := yaml.Unmarshal(yamlBytes, &doc); err != nil {
		return nil, &engerrors.InvalidPartsError{Message: fmt.Sprintf("failed to parse parts document: %v", err)}
	}

	names := make([]string, 0, len(doc.Parts))
	for name := range doc.Parts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Part, 0, len(names))
	for _, name := range names {
		node := doc.Parts[name]
		p, err := decodePart(name, node, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodePart(name string, node yaml.Node, opts DecodeOptions) (*Part, error) {
	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return nil, &engerrors.InvalidPartsError{Part: name, Message: fmt.Sprintf("part must be a mapping: %v", err)}
	}

	p := &Part{Name: name, Scriptlets: map[string]string{}, Extra: map[string]interface{}{}}

	var plain struct {
		Plugin          string   `yaml:"plugin"`
		Source          string   `yaml:"source"`
		SourceType      string   `yaml:"source-type"`
		SourceBranch    string   `yaml:"source-branch"`
		SourceTag       string   `yaml:"source-tag"`
		SourceCommit    string   `yaml:"source-commit"`
		SourceDepth     int      `yaml:"source-depth"`
		SourceSubdir    string   `yaml:"source-subdir"`
		SourceSubmods   bool     `yaml:"source-submodules"`
		SourceChecksum  string   `yaml:"source-checksum"`
		SourceChannel   string   `yaml:"source-channel"`
		BuildPackages   []string `yaml:"build-packages"`
		BuildSnaps      []string `yaml:"build-snaps"`
		StagePackages   []string `yaml:"stage-packages"`
		StageSnaps      []string `yaml:"stage-snaps"`
		PrimePackages   []string `yaml:"prime-packages"`
		OverlayPackages []string `yaml:"overlay-packages"`
		OverlayScript   string   `yaml:"overlay-script"`
		Stage           Filter   `yaml:"stage"`
		Prime           Filter   `yaml:"prime"`
		Overlay         Filter   `yaml:"overlay"`
		After           []string `yaml:"after"`
		DisableParallel bool     `yaml:"disable-parallel"`
		Permissions     []PermissionRule `yaml:"permissions"`
	}
	if err := node.Decode(&plain); err != nil {
		return nil, &engerrors.InvalidPartsError{Part: name, Message: err.Error()}
	}

	p.Plugin = plain.Plugin
	p.Source = Source{
		Location: plain.Source, Type: plain.SourceType, Branch: plain.SourceBranch,
		Tag: plain.SourceTag, Commit: plain.SourceCommit, Depth: plain.SourceDepth,
		Subdir: plain.SourceSubdir, Submodules: plain.SourceSubmods,
		Checksum: plain.SourceChecksum, Channel: plain.SourceChannel,
	}
	p.BuildPackages = plain.BuildPackages
	p.BuildSnaps = plain.BuildSnaps
	p.StagePackages = plain.StagePackages
	p.StageSnaps = plain.StageSnaps
	p.PrimePackages = plain.PrimePackages
	p.OverlayPackages = plain.OverlayPackages
	p.OverlayScript = plain.OverlayScript
	p.StageFilter = plain.Stage
	p.PrimeFilter = plain.Prime
	p.OverlayFilter = plain.Overlay
	p.After = plain.After
	p.DisableParallel = plain.DisableParallel
	p.Permissions = plain.Permissions

	if orgNode, ok := raw["organize"]; ok {
		entries, err := decodeOrganize(orgNode)
		if err != nil {
			return nil, &engerrors.InvalidPartsError{Part: name, Field: "organize", Message: err.Error()}
		}
		p.Organize = entries
	}

	declared := map[string]bool{}
	for _, k := range opts.PluginKeys[p.Plugin] {
		declared[k] = true
	}

	for key, valueNode := range raw {
		if coreKeys[key] {
			continue
		}
		if scriptletKeyPattern[key] {
			var v string
			if err := valueNode.Decode(&v); err != nil {
				return nil, &engerrors.InvalidPartsError{Part: name, Field: key, Message: err.Error()}
			}
			p.Scriptlets[key] = v
			continue
		}
		if declared[key] {
			var v interface{}
			_ = valueNode.Decode(&v)
			p.Extra[key] = v
			continue
		}
		return nil, &engerrors.InvalidPartsError{
			Part: name, Field: key,
			Message: fmt.Sprintf("unknown key %q (not declared by plugin %q)", key, p.Plugin),
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeOrganize preserves mapping order from the YAML node, since
// organize's "ordered: build-relative path -> install-relative path"
// semantics (spec §3) matter for conflicting-destination resolution.
func decodeOrganize(node yaml.Node) ([]OrganizeEntry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("organize must be a mapping")
	}
	var entries []OrganizeEntry
	for i := 0; i+1 < len(node.Content); i += 2 {
		var from, to string
		if err := node.Content[i].Decode(&from); err != nil {
			return nil, err
		}
		if err := node.Content[i+1].Decode(&to); err != nil {
			return nil, err
		}
		entries = append(entries, OrganizeEntry{From: from, To: to})
	}
	return entries, nil
}
