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

// Package profile writes CPU and memory profiles for the command line
// tools.
package profile

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"seehuhn.de/go/markup/logging"
)

// Start begins CPU profiling if cpuFile is not empty.  The returned
// function stops the CPU profile and, if memFile is not empty, writes an
// allocation profile.  Errors during stop are logged.
func Start(cpuFile, memFile string) (stop func(), err error) {
	var cpu *os.File
	if cpuFile != "" {
		cpu, err = os.Create(cpuFile)
		if err != nil {
			return nil, fmt.Errorf("creating CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(cpu); err != nil {
			cpu.Close()
			return nil, fmt.Errorf("starting CPU profile: %w", err)
		}
	}

	stop = func() {
		if cpu != nil {
			pprof.StopCPUProfile()
			if err := cpu.Close(); err != nil {
				logging.Logger().Error("closing CPU profile", "file", cpuFile, "error", err)
			}
		}
		if memFile != "" {
			if err := writeAllocs(memFile); err != nil {
				logging.Logger().Error("writing memory profile", "file", memFile, "error", err)
			}
		}
	}
	return stop, nil
}

func writeAllocs(name string) error {
	allocs := pprof.Lookup("allocs")
	if allocs == nil {
		return errors.New("no allocation profile")
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	runtime.GC()
	err = allocs.WriteTo(f, 0)
	return errors.Join(err, f.Close())
}
