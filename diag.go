/*
Copyright © 2025 the EMGrid authors.
This file is part of EMGrid.

EMGrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EMGrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EMGrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package emgrid

import "fmt"

// Level classifies a Diagnostic.
type Level int

const (
	// LevelWarning marks conditions that are legal but probably not what the
	// user intended, such as snapping points supplied along an axis where
	// they take no effect.
	LevelWarning Level = iota
	// LevelInternal marks recovered inconsistencies in the meshing itself.
	LevelInternal
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelInternal:
		return "internal"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Diagnostic is a single non-fatal message produced during grid generation.
type Diagnostic struct {
	Level   Level
	Message string
}

// Diagnostics collects the non-fatal messages produced while generating a
// grid. Grid generation itself never writes to a logger; callers pass a
// *Diagnostics sink and decide what to do with the contents. A nil
// *Diagnostics is valid and discards everything.
type Diagnostics struct {
	entries []Diagnostic
}

func (d *Diagnostics) warnf(format string, a ...interface{}) {
	if d == nil {
		return
	}
	d.entries = append(d.entries, Diagnostic{Level: LevelWarning, Message: fmt.Sprintf(format, a...)})
}

func (d *Diagnostics) internalf(format string, a ...interface{}) {
	if d == nil {
		return
	}
	d.entries = append(d.entries, Diagnostic{Level: LevelInternal, Message: fmt.Sprintf(format, a...)})
}

// All returns every collected diagnostic in order of occurrence.
func (d *Diagnostics) All() []Diagnostic {
	if d == nil {
		return nil
	}
	return d.entries
}

// Len reports the number of collected diagnostics.
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Warnings returns the messages of warning-level diagnostics.
func (d *Diagnostics) Warnings() []string { return d.messages(LevelWarning) }

// Internal returns the messages of internal-level diagnostics. A non-empty
// result means the mesher recovered from an inconsistency that should be
// reported as a bug.
func (d *Diagnostics) Internal() []string { return d.messages(LevelInternal) }

func (d *Diagnostics) messages(level Level) []string {
	if d == nil {
		return nil
	}
	var msgs []string
	for _, e := range d.entries {
		if e.Level == level {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}
