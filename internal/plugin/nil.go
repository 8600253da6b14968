package plugin

// Nil is a no-op Plugin: it requests no snaps or packages, contributes no
// environment, and runs no commands. It exists so lifecycle examples that
// declare `plugin: nil` (spec §8 scenario 1) can run end to end without a
// real language plugin.
type Nil struct{}

func (Nil) GetBuildSnaps(StepInfo) []string                   { return nil }
func (Nil) GetBuildPackages(StepInfo) []string                { return nil }
func (Nil) GetBuildEnvironment(StepInfo) map[string]string     { return nil }
func (Nil) GetPullCommands(StepInfo) []string                  { return nil }
func (Nil) GetBuildCommands(StepInfo) []string                 { return nil }
func (Nil) GetOutOfSourceBuild() bool                           { return false }

const Key = "nil"
