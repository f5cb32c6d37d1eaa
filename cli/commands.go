package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool `help:"Show timing telemetry for operations."`
}

type Commands struct {
	Globals

	Lint  LintCmd  `cmd:"" help:"Run the registered plugins over a ledger and report violations."`
	Watch WatchCmd `cmd:"" help:"Re-lint a ledger whenever it or its includes change."`
	Init  InitCmd  `cmd:"" help:"Create a starter ledger with plugin declarations."`
}
