// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires BloodConnect into WAFFLE's lifecycle. Config is validated
// before Mongo is dialed, so a missing coordinator address or SMTP host
// stops the process before any connection is opened. EnsureSchema installs
// the donor, emergency and account validators and indexes ahead of Startup.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "bloodconnect",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
