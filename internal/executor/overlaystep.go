package executor

import (
	"context"
	"os"

	"github.com/canonical/craft-parts-go/internal/console"
	"github.com/canonical/craft-parts-go/internal/env"
	engerrors "github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/overlay"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/state"
)

// runOverlay performs the OVERLAY step (spec §4.6, §4.8): chain this part's
// layer record onto the overlay stack, mount the consolidated view up to and
// including this part, install overlay-packages into it, and run the
// overlay-script with CRAFT_OVERLAY pointing at the mount root.
func (e *Executor) runOverlay(ctx context.Context, p *parts.Part) (state.Record, error) {
	if e.cfg.Mounter == nil || e.cfg.OverlayStack == nil {
		return state.Record{}, nil
	}

	layerHash := e.cfg.OverlayStack.Append(overlay.LayerRecord{
		PartName:        p.Name,
		OverlayPackages: p.OverlayPackages,
		OverlayScript:   p.OverlayScript,
		OverlayFilter:   []string(p.OverlayFilter),
	})

	prior := e.cfg.OverlayStack.ProcessedParts(e.cfg.OverlayStack.Len() - 1)
	root, release, err := e.cfg.Mounter.Acquire(ctx, p.Name, prior)
	if err != nil {
		return state.Record{}, engerrors.Classify(p.Name, "OVERLAY", "", "", &engerrors.OverlayError{Part: p.Name, Reason: "acquire", Err: err})
	}
	defer func() {
		if rerr := release(); rerr != nil {
			console.Debugf("overlay release for %s: %v", p.Name, rerr)
		}
	}()

	if len(p.OverlayPackages) > 0 && e.cfg.Packages != nil {
		if _, err := e.cfg.Packages.InstallInRoot(ctx, p.OverlayPackages, root); err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "OVERLAY", "", "", &engerrors.PackageBackendError{Part: p.Name, Package: "overlay-packages", Err: err})
		}
	}

	if p.OverlayScript != "" {
		sock, err := listenControlSocket(e.socketPath(p.Name, "overlay"), p.Name, e.cfg.Vars, nil)
		if err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "OVERLAY", "", "", &engerrors.OverlayError{Part: p.Name, Reason: "control socket", Err: err})
		}
		defer sock.Close()

		envParams := e.envParams(p, sock.path)
		envParams.OverlayDir = root
		environ := append(env.Build(envParams), os.Environ()...)

		res, err := runShell(ctx, p.OverlayScript, root, environ, e.cfg.Stdout, e.cfg.Stderr)
		if err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "OVERLAY", res.StdoutTail, res.StderrTail,
				&engerrors.BuildScriptError{Part: p.Name, Step: "OVERLAY", ExitCode: res.ExitCode, StdoutTail: res.StdoutTail, StderrTail: res.StderrTail})
		}
	}

	return state.Record{Assets: map[string]string{"layer-hash": layerHash}}, nil
}
