package fixtures

import (
	"embed"
)

//go:embed jsonrpc/*.json server/*.json
var FixturesFS embed.FS
