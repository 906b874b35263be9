package version

import "runtime/debug"

// ModulePath is the import path of this module.
const ModulePath = "github.com/kbukum/prockit"

// Version is set at build time using -ldflags. When left at "dev", Get
// falls back to the module version recorded in the binary's build info.
var Version = "dev"

// Get returns the library version reported on spans and metrics.
func Get() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if v := moduleVersion(bi); v != "" {
			return v
		}
	}
	return Version
}

// moduleVersion finds this module in bi, either as the main module or as a
// dependency. Local builds report "(devel)", which is ignored.
func moduleVersion(bi *debug.BuildInfo) string {
	mod := &bi.Main
	if mod.Path != ModulePath {
		mod = nil
		for _, dep := range bi.Deps {
			if dep.Path == ModulePath {
				mod = dep
				break
			}
		}
	}
	if mod == nil {
		return ""
	}
	if mod.Replace != nil {
		mod = mod.Replace
	}
	if mod.Version == "" || mod.Version == "(devel)" {
		return ""
	}
	return mod.Version
}
