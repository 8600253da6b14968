package executor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/env"
	engerrors "github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/filter"
	"github.com/canonical/craft-parts-go/internal/migration"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/state"
)

// runStage performs the STAGE step (spec §4.8): unpack stage-packages into
// the install dir, compute the candidate file set per partition, filter it,
// detect collisions against other parts' contributions, and migrate the
// result into stage (or partition stage), recording ownership.
func (e *Executor) runStage(ctx context.Context, p *parts.Part) (state.Record, error) {
	install := e.cfg.Dirs.Part(p.Name).Install()

	if e.cfg.Packages != nil && len(p.StagePackages) > 0 {
		if err := e.cfg.Packages.UnpackStagePackages(ctx, p.StagePackages, e.stagePackagesCacheDir(p), install); err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "STAGE", "", "", &engerrors.PackageBackendError{Part: p.Name, Package: "stage-packages", Err: err})
		}
	}

	defaultStage := func(ctx context.Context) error {
		return e.builtinStage(p)
	}

	sock, err := listenControlSocket(e.socketPath(p.Name, "stage"), p.Name, e.cfg.Vars, defaultStage)
	if err != nil {
		return state.Record{}, engerrors.Classify(p.Name, "STAGE", "", "", &engerrors.ScriptletProtocolError{Part: p.Name, Command: "control-socket", Reason: err.Error()})
	}
	defer sock.Close()

	if override, ok := p.Scriptlets["override-stage"]; ok && override != "" {
		environ := append(env.Build(e.envParams(p, sock.path)), os.Environ()...)
		res, err := runShell(ctx, override, install, environ, e.cfg.Stdout, e.cfg.Stderr)
		if err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "STAGE", res.StdoutTail, res.StderrTail,
				&engerrors.BuildScriptError{Part: p.Name, Step: "STAGE", ExitCode: res.ExitCode, StdoutTail: res.StdoutTail, StderrTail: res.StderrTail})
		}
	} else if err := defaultStage(ctx); err != nil {
		return state.Record{}, err
	}

	files := e.cfg.Migration.Files(migration.Stage, dirs.DefaultPartition, p.Name)
	return state.Record{Files: files}, nil
}

// builtinStage walks the install dir (and each configured partition's
// organize subtree) and migrates the filtered result into stage.
func (e *Executor) builtinStage(p *parts.Part) error {
	install := e.cfg.Dirs.Part(p.Name).Install()

	for _, partition := range e.stagePartitions() {
		root := e.organizeRoot(install, partition)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		relFiles, err := walkFiles(root)
		if err != nil {
			return engerrors.Classify(p.Name, "STAGE", "", "", &engerrors.PermissionError{Part: p.Name, Path: root, Err: err})
		}

		f := filter.New([]string(p.StageFilter)).WithBaseExcludes(e.cfg.BaseExcludes)
		included := f.SortedIncluded(relFiles)
		if len(included) == 0 {
			continue
		}

		for _, rel := range included {
			if owner, ok := e.cfg.Migration.OwnerOf(migration.Stage, partition, rel); ok && owner != p.Name {
				return engerrors.Classify(p.Name, "STAGE", "", "",
					&engerrors.FileCollisionError{Path: rel, PartA: owner, PartB: p.Name, Reason: "both parts stage this path"})
			}
		}

		dstRoot := e.cfg.Dirs.PartitionStageDir(partition)
		dirList, err := migrateFiles(root, dstRoot, included)
		if err != nil {
			return engerrors.Classify(p.Name, "STAGE", "", "", &engerrors.PermissionError{Part: p.Name, Path: dstRoot, Err: err})
		}

		if err := e.cfg.Migration.Record(migration.Stage, partition, p.Name, included, dirList, false); err != nil {
			return err
		}
	}
	return nil
}

// stagePartitions returns every partition name STAGE should process: the
// default partition always, plus every configured non-default partition.
func (e *Executor) stagePartitions() []string {
	out := []string{dirs.DefaultPartition}
	if e.cfg.Dirs.PartitionsEnable {
		for _, p := range e.cfg.Dirs.Partitions {
			if p != dirs.DefaultPartition {
				out = append(out, p)
			}
		}
	}
	return out
}

// walkFiles returns every regular file under root, "/"-separated and
// relative to root, sorted.
func walkFiles(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// copyOrLink materializes src at dst, preferring a hardlink (cheap, and
// matches stage/prime semantics where the content is never mutated in
// place) and falling back to a full copy across filesystems.
func copyOrLink(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	_ = os.Remove(dst)
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
