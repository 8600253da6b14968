package executor

import (
	"context"
	"os"

	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/env"
	engerrors "github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/filter"
	"github.com/canonical/craft-parts-go/internal/migration"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/state"
)

// runPrime performs the PRIME step (spec §4.8): migrate this part's own
// staged files, filtered by its prime filter, into prime (or partition
// prime), recording ownership.
func (e *Executor) runPrime(ctx context.Context, p *parts.Part) (state.Record, error) {
	defaultPrime := func(ctx context.Context) error {
		return e.builtinPrime(p)
	}

	sock, err := listenControlSocket(e.socketPath(p.Name, "prime"), p.Name, e.cfg.Vars, defaultPrime)
	if err != nil {
		return state.Record{}, engerrors.Classify(p.Name, "PRIME", "", "", &engerrors.ScriptletProtocolError{Part: p.Name, Command: "control-socket", Reason: err.Error()})
	}
	defer sock.Close()

	if override, ok := p.Scriptlets["override-prime"]; ok && override != "" {
		environ := append(env.Build(e.envParams(p, sock.path)), os.Environ()...)
		res, err := runShell(ctx, override, e.cfg.Dirs.PrimeDir(), environ, e.cfg.Stdout, e.cfg.Stderr)
		if err != nil {
			return state.Record{}, engerrors.Classify(p.Name, "PRIME", res.StdoutTail, res.StderrTail,
				&engerrors.BuildScriptError{Part: p.Name, Step: "PRIME", ExitCode: res.ExitCode, StdoutTail: res.StdoutTail, StderrTail: res.StderrTail})
		}
	} else if err := defaultPrime(ctx); err != nil {
		return state.Record{}, err
	}

	files := e.cfg.Migration.Files(migration.Prime, dirs.DefaultPartition, p.Name)
	return state.Record{Files: files}, nil
}

func (e *Executor) builtinPrime(p *parts.Part) error {
	for _, partition := range e.stagePartitions() {
		owned := e.cfg.Migration.Files(migration.Stage, partition, p.Name)
		if len(owned) == 0 {
			continue
		}

		f := filter.New([]string(p.PrimeFilter))
		included := f.SortedIncluded(owned)
		if len(included) == 0 {
			continue
		}

		stageRoot := e.cfg.Dirs.PartitionStageDir(partition)
		primeRoot := e.cfg.Dirs.PartitionPrimeDir(partition)

		for _, rel := range included {
			if owner, ok := e.cfg.Migration.OwnerOf(migration.Prime, partition, rel); ok && owner != p.Name {
				return engerrors.Classify(p.Name, "PRIME", "", "",
					&engerrors.FileCollisionError{Path: rel, PartA: owner, PartB: p.Name, Reason: "both parts prime this path"})
			}
		}

		dirList, err := migrateFiles(stageRoot, primeRoot, included)
		if err != nil {
			return engerrors.Classify(p.Name, "PRIME", "", "", &engerrors.PermissionError{Part: p.Name, Path: primeRoot, Err: err})
		}

		if err := e.cfg.Migration.Record(migration.Prime, partition, p.Name, included, dirList, false); err != nil {
			return err
		}
	}
	return nil
}
