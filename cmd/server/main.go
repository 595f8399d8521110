// Package main runs the tern URL shortener HTTP server.
//
//	@title			Tern URL Shortener API
//	@version		1.0
//	@description	A fast and simple URL shortener service with visit tracking
//	@host			localhost:3000
//	@BasePath		/
//	@schemes		http https
package main

import (
	"go.uber.org/fx"

	ternFX "github.com/ternhq/tern/internal/fx"
)

func main() {
	fx.New(ternFX.HTTPServerModules).Run()
}
