// seehuhn.de/go/markup - annotate, measure and export PDF pages
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package buildinfo reports version information for the command line
// tools.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

// Short returns a one line version string for a command line tool, e.g.
// "pdf-markup seehuhn.de/go/markup v0.1.0 (seehuhn.de/go/pdf v0.6.0)".
func Short(toolName string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return toolName
	}
	return format(toolName, info)
}

func format(toolName string, info *debug.BuildInfo) string {
	parts := []string{toolName}
	if v := mainVersion(info); v != "" {
		parts = append(parts, info.Main.Path+" "+v)
	}
	for _, dep := range info.Deps {
		if dep.Path == "seehuhn.de/go/pdf" {
			parts = append(parts, "("+dep.Path+" "+dep.Version+")")
			break
		}
	}
	return strings.Join(parts, " ")
}

// mainVersion returns the module version of the main module, falling back
// to the VCS revision for development builds.
func mainVersion(info *debug.BuildInfo) string {
	version := info.Main.Version
	if version != "" && version != "(devel)" {
		return version
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if dirty {
		rev += "+dirty"
	}
	return rev
}
