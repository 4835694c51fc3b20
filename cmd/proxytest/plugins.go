package main

import (
	"github.com/yoleg/proxytest/internal/backend"
	"github.com/yoleg/proxytest/internal/backends/dummy"
	"github.com/yoleg/proxytest/internal/backends/httpfetch"
	"github.com/yoleg/proxytest/internal/backends/wsprobe"
)

// builtinPlugins lists the strategy sources linked into this build.
// Independently distributed backends add themselves here (or through their
// own plugin slice) without touching the core packages.
func builtinPlugins() []backend.Plugin {
	return []backend.Plugin{
		{Name: httpfetch.Name, Load: httpfetch.Register},
		{Name: wsprobe.Name, Load: wsprobe.Register},
		{Name: dummy.Name, Load: dummy.Register},
	}
}
