package main

var (
	rootFlags struct {
		env    string
		server string
	}

	rootCommand = NewCommand("admin", nil)
)

const (
	defaultServer = "http://localhost:8000"
)

func init() {
	rootCommand.Command.SilenceUsage = true
	rootCommand.StringVar(&rootFlags.env, "env", "local", false)
	rootCommand.StringVar(&rootFlags.server, "server", defaultServer, false)
}
