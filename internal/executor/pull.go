package executor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/canonical/craft-parts-go/internal/action"
	"github.com/canonical/craft-parts-go/internal/env"
	engerrors "github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/plugin"
	"github.com/canonical/craft-parts-go/internal/source"
	"github.com/canonical/craft-parts-go/internal/state"
)

func (e *Executor) stagePackagesCacheDir(p *parts.Part) string {
	return filepath.Join(e.cfg.Dirs.Part(p.Name).Root(), "stage_packages")
}

// runPull performs the PULL step (spec §4.8): plugin pull commands, source
// fetch or update, then stage/overlay package download for later unpack at
// BUILD/STAGE.
func (e *Executor) runPull(ctx context.Context, p *parts.Part, kind action.Kind) (state.Record, error) {
	pd := e.cfg.Dirs.Part(p.Name)
	for _, dir := range []string{pd.Src(), pd.SrcWork(), pd.Build(), pd.BuildWork(), pd.Install(), pd.State(), pd.Run()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "PULL", "", "", &engerrors.SourceFetchError{Part: p.Name, Err: err})
		}
	}

	defaultPull := func(ctx context.Context) error {
		return e.builtinPull(ctx, p, kind)
	}

	sock, err := listenControlSocket(e.socketPath(p.Name, "pull"), p.Name, e.cfg.Vars, defaultPull)
	if err != nil {
		return state.Record{}, engerrors.Classify(p.Name, "PULL", "", "", &engerrors.SourceFetchError{Part: p.Name, Err: err})
	}
	defer sock.Close()

	envParams := e.envParams(p, sock.path)
	environ := append(env.Build(envParams), os.Environ()...)

	if override, ok := p.Scriptlets["override-pull"]; ok && override != "" {
		res, err := runShell(ctx, override, pd.SrcWork(), environ, e.cfg.Stdout, e.cfg.Stderr)
		if err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "PULL", res.StdoutTail, res.StderrTail,
				&engerrors.BuildScriptError{Part: p.Name, Step: "PULL", ExitCode: res.ExitCode, StdoutTail: res.StdoutTail, StderrTail: res.StderrTail})
		}
	} else if err := defaultPull(ctx); err != nil {
		return state.Record{}, err
	}

	assets := map[string]string{
		"source-digest":  p.SourceDigest(),
		"override-pull":  p.Scriptlets["override-pull"],
		"resolved-plugin": p.Plugin,
	}
	return state.Record{Assets: assets}, nil
}

func (e *Executor) builtinPull(ctx context.Context, p *parts.Part, kind action.Kind) error {
	pd := e.cfg.Dirs.Part(p.Name)

	if p.Plugin != "" {
		if pl, err := e.cfg.Plugins.Get(p.Plugin); err == nil {
			info := plugin.StepInfo{
				PartName:      p.Name,
				PartSrc:       pd.Src(),
				PartBuild:     pd.Build(),
				PartInstall:   pd.Install(),
				ArchBuildOn:   e.cfg.ArchDebianBuildOn,
				ArchBuildFor:  e.cfg.ArchDebianBuildFor,
				ParallelBuild: e.cfg.ParallelBuildCount,
			}
			if cmds := pl.GetPullCommands(info); len(cmds) > 0 {
				if _, err := runCommands(ctx, cmds, pd.SrcWork(), append(env.Build(e.envParams(p, "")), os.Environ()...), e.cfg.Stdout, e.cfg.Stderr); err != nil {
					return engerrors.Classify(p.Name, "PULL", "", "", &engerrors.SourceFetchError{Part: p.Name, Err: err})
				}
			}
		}
	}

	if p.Source.Location != "" {
		handler, _, err := e.cfg.Sources.Resolve(p.Source.Location, p.Source.Type)
		if err != nil {
			return engerrors.Classify(p.Name, "PULL", "", "", &engerrors.SourceFetchError{Part: p.Name, Err: err})
		}
		ref := source.Refinement{
			Location:   p.Source.Location,
			Branch:     p.Source.Branch,
			Tag:        p.Source.Tag,
			Commit:     p.Source.Commit,
			Depth:      p.Source.Depth,
			Subdir:     p.Source.Subdir,
			Submodules: p.Source.Submodules,
			Checksum:   p.Source.Checksum,
			Channel:    p.Source.Channel,
		}
		if kind == action.Update {
			if up, ok := handler.(source.Updatable); ok {
				if err := up.Update(ctx, pd.Src(), ref); err != nil {
					return engerrors.Classify(p.Name, "PULL", "", "", &engerrors.SourceFetchError{Part: p.Name, Err: err})
				}
				return nil
			}
		}
		if err := handler.Pull(ctx, pd.Src(), ref); err != nil {
			return engerrors.Classify(p.Name, "PULL", "", "", &engerrors.SourceFetchError{Part: p.Name, Err: err})
		}
	}

	if e.cfg.Packages != nil && len(p.StagePackages) > 0 {
		if _, err := e.cfg.Packages.DownloadStagePackages(ctx, p.StagePackages, e.stagePackagesCacheDir(p)); err != nil {
			return engerrors.Classify(p.Name, "PULL", "", "", &engerrors.PackageBackendError{Part: p.Name, Package: "stage-packages", Err: err})
		}
	}
	if e.cfg.Packages != nil && len(p.OverlayPackages) > 0 {
		if _, err := e.cfg.Packages.DownloadOverlayPackages(ctx, p.OverlayPackages, e.cfg.Dirs.OverlayPackagesDir()); err != nil {
			return engerrors.Classify(p.Name, "PULL", "", "", &engerrors.PackageBackendError{Part: p.Name, Package: "overlay-packages", Err: err})
		}
	}
	return nil
}
