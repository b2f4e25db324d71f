package config

import (
	"embed"
)

// Store holds the yaml configs, keyed by "<namespace>/<env>.yml".
//
//go:embed rpcfailover/*.yml
var Store embed.FS
