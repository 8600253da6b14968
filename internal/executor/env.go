package executor

import (
	"path/filepath"

	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/env"
	"github.com/canonical/craft-parts-go/internal/overlay"
	"github.com/canonical/craft-parts-go/internal/parts"
)

func (e *Executor) partitionViews() []env.PartitionView {
	if !e.cfg.Dirs.PartitionsEnable {
		return nil
	}
	out := make([]env.PartitionView, 0, len(e.cfg.Dirs.Partitions))
	for _, p := range e.cfg.Dirs.Partitions {
		if p == dirs.DefaultPartition {
			continue
		}
		out = append(out, env.PartitionView{
			Name:  p,
			Stage: e.cfg.Dirs.PartitionStageDir(p),
			Prime: e.cfg.Dirs.PartitionPrimeDir(p),
		})
	}
	return out
}

func (e *Executor) overlayVisible(p *parts.Part) bool {
	if e.cfg.Mounter == nil {
		return false
	}
	rc := overlay.ReadContext{
		OwnDeclares: overlay.DeclaresOverlay(p.OverlayPackages, p.OverlayScript, []string(p.OverlayFilter)),
		DependsOn:   transitivelyDependsOnOverlay(e.cfg.Graph, p.Name, map[string]bool{}),
	}
	return rc.Visible()
}

// envParams builds the step environment parameters for part p, exporting
// CRAFT_OVERLAY only when p has overlay visibility (spec §4.6, §6).
func (e *Executor) envParams(p *parts.Part, socketPath string) env.Params {
	overlayDir := ""
	if e.overlayVisible(p) {
		overlayDir = e.cfg.Dirs.OverlayLayerDir()
	}
	return env.Params{
		ProjectDir: e.cfg.Dirs.WorkDir,
		Arch: env.Arch{
			TripletBuildOn:  e.cfg.ArchTripletBuildOn,
			TripletBuildFor: e.cfg.ArchTripletBuildFor,
			DebianBuildOn:   e.cfg.ArchDebianBuildOn,
			DebianBuildFor:  e.cfg.ArchDebianBuildFor,
		},
		ParallelBuildCount: e.cfg.ParallelBuildCount,
		PartName:           p.Name,
		PartDirs:           e.cfg.Dirs.Part(p.Name),
		OverlayDir:         overlayDir,
		Stage:              e.cfg.Dirs.StageDir(),
		Prime:              e.cfg.Dirs.PrimeDir(),
		Partitions:         e.partitionViews(),
		ControlSocket:      socketPath,
	}
}

func (e *Executor) socketPath(partName string, s string) string {
	return filepath.Join(e.cfg.Dirs.Part(partName).Run(), s+".sock")
}
