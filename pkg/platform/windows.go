// SPDX-License-Identifier: MPL-2.0

package platform

import "strings"

// WindowsReservedNames lists file names that Windows refuses to create,
// with or without an extension.
var WindowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsWindowsReservedName reports whether name (case-insensitive, extension
// stripped) collides with a Windows device name. "con.txt" is reserved
// just like "con".
func IsWindowsReservedName(name string) bool {
	base := name
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return WindowsReservedNames[strings.ToUpper(base)]
}
