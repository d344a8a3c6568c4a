package application

type CheckCommand struct {
	DryRun     bool
	SkipJitter bool
}
