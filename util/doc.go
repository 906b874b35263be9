// Package util provides small generic helpers.
//
// The pointer helpers back the three-state boolean options used by the
// process package, where nil means "use the default".
package util
