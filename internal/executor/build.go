package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/env"
	engerrors "github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/filter"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/plugin"
	"github.com/canonical/craft-parts-go/internal/state"
)

// runBuild performs the BUILD step (spec §4.8): override-build scriptlet or
// plugin build commands, run in the part's build dir with CRAFT_PART_INSTALL
// exposed; then organize and permissions are applied to the install tree.
func (e *Executor) runBuild(ctx context.Context, p *parts.Part) (state.Record, error) {
	pd := e.cfg.Dirs.Part(p.Name)

	if e.cfg.Packages != nil && len(p.BuildPackages) > 0 {
		if _, err := e.cfg.Packages.InstallBuildPackages(ctx, p.BuildPackages); err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.PackageBackendError{Part: p.Name, Package: "build-packages", Err: err})
		}
	}

	defaultBuild := func(ctx context.Context) error {
		return e.builtinBuild(ctx, p)
	}

	sock, err := listenControlSocket(e.socketPath(p.Name, "build"), p.Name, e.cfg.Vars, defaultBuild)
	if err != nil {
		return state.Record{}, engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.ScriptletProtocolError{Part: p.Name, Command: "control-socket", Reason: err.Error()})
	}
	defer sock.Close()

	environ := append(env.Build(e.envParams(p, sock.path)), os.Environ()...)

	if override, ok := p.Scriptlets["override-build"]; ok && override != "" {
		res, err := runShell(ctx, override, pd.Build(), environ, e.cfg.Stdout, e.cfg.Stderr)
		if err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "BUILD", res.StdoutTail, res.StderrTail,
				&engerrors.BuildScriptError{Part: p.Name, Step: "BUILD", ExitCode: res.ExitCode, StdoutTail: res.StdoutTail, StderrTail: res.StderrTail})
		}
	} else if err := defaultBuild(ctx); err != nil {
		return state.Record{}, err
	}

	if err := e.applyOrganize(p); err != nil {
		return state.Record{}, err
	}
	if err := e.applyPermissions(p); err != nil {
		return state.Record{}, err
	}

	return state.Record{}, nil
}

func (e *Executor) builtinBuild(ctx context.Context, p *parts.Part) error {
	pd := e.cfg.Dirs.Part(p.Name)
	if p.Plugin == "" {
		return nil
	}
	pl, err := e.cfg.Plugins.Get(p.Plugin)
	if err != nil {
		return engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.PluginValidationError{Part: p.Name, Plugin: p.Plugin, Reason: err.Error()})
	}
	if vp, ok := pl.(plugin.ValidatingPlugin); ok {
		if err := vp.ValidateEnvironment(ctx); err != nil {
			return engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.PluginValidationError{Part: p.Name, Plugin: p.Plugin, Reason: err.Error()})
		}
	}
	info := plugin.StepInfo{
		PartName:      p.Name,
		PartSrc:       pd.Src(),
		PartBuild:     pd.Build(),
		PartInstall:   pd.Install(),
		ArchBuildOn:   e.cfg.ArchDebianBuildOn,
		ArchBuildFor:  e.cfg.ArchDebianBuildFor,
		ParallelBuild: e.cfg.ParallelBuildCount,
	}
	buildDir := pd.Build()
	if pl.GetOutOfSourceBuild() {
		buildDir = pd.BuildWork()
	}
	cmds := pl.GetBuildCommands(info)
	if len(cmds) == 0 {
		return nil
	}
	environ := append(env.Build(e.envParams(p, "")), os.Environ()...)
	for k, v := range pl.GetBuildEnvironment(info) {
		environ = append(environ, k+"="+v)
	}
	res, err := runCommands(ctx, cmds, buildDir, environ, e.cfg.Stdout, e.cfg.Stderr)
	if err != nil {
		return engerrors.Classify(p.Name, "BUILD", res.StdoutTail, res.StderrTail,
			&engerrors.BuildScriptError{Part: p.Name, Step: "BUILD", ExitCode: res.ExitCode, StdoutTail: res.StdoutTail, StderrTail: res.StderrTail})
	}
	return nil
}

// organizeRoot returns the install-relative subtree that STAGE later walks
// for a given partition: the install dir itself for the default partition,
// or a reserved per-partition subtree of it otherwise. Organize source paths
// always belong to the default partition (enforced by Part.Validate); only
// destinations route across partitions, so this keeps partitioned content
// out of the shared stage tree until STAGE applies filtering, collision
// detection and migration tracking to it.
func (e *Executor) organizeRoot(install, partition string) string {
	if partition == dirs.DefaultPartition {
		return install
	}
	return filepath.Join(install, "partitions", partition)
}

// applyOrganize moves files within the part's install dir according to its
// ordered organize mapping, routing destinations across partitions as
// declared with a "(partition)/" prefix (spec §4.8, §4.1).
func (e *Executor) applyOrganize(p *parts.Part) error {
	install := e.cfg.Dirs.Part(p.Name).Install()
	for _, entry := range p.Organize {
		src := filepath.Join(install, entry.From)
		partition, rel := dirs.SplitPartitionPath(entry.To)
		dst := filepath.Join(e.organizeRoot(install, partition), rel)

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.PermissionError{Part: p.Name, Path: entry.To, Err: err})
		}
		if _, err := os.Stat(dst); err == nil {
			return engerrors.Classify(p.Name, "BUILD", "", "",
				&engerrors.FileCollisionError{Path: entry.To, PartA: p.Name, PartB: p.Name, Reason: "organize destination already exists"})
		}
		if err := os.Rename(src, dst); err != nil {
			return engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.PermissionError{Part: p.Name, Path: entry.To, Err: err})
		}
	}
	return nil
}

// applyPermissions applies owner/group/mode rules to paths in the install
// tree matching each rule's glob pattern (spec §4.8, §4.10).
func (e *Executor) applyPermissions(p *parts.Part) error {
	if len(p.Permissions) == 0 {
		return nil
	}
	install := e.cfg.Dirs.Part(p.Name).Install()

	return filepath.Walk(install, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(install, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, rule := range p.Permissions {
			if rule.Path != "" && !matchPermissionPath(rule.Path, rel) {
				continue
			}
			if rule.Mode != "" {
				mode, err := parts.ParsePermissionMode(rule.Mode)
				if err != nil {
					return engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.PermissionError{Part: p.Name, Path: rel, Err: err})
				}
				if err := os.Chmod(path, os.FileMode(mode)); err != nil {
					return engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.PermissionError{Part: p.Name, Path: rel, Err: err})
				}
			}
			if rule.Owner != nil && rule.Group != nil {
				if err := os.Chown(path, *rule.Owner, *rule.Group); err != nil {
					return engerrors.Classify(p.Name, "BUILD", "", "", &engerrors.PermissionError{Part: p.Name, Path: rel, Err: err})
				}
			}
		}
		return nil
	})
}

func matchPermissionPath(pattern, rel string) bool {
	return filter.New([]string{strings.TrimSuffix(pattern, "/")}).Match(rel)
}
