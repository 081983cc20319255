// Package ui renders dispatch progress for the hostfacts CLI.
//
// Progress goes to stderr so stdout carries only the report. Each phase
// (connect, upload, run) prints one line when it ends:
//
//	● Connected to build01.example 0.3s
//	● Uploaded collector 1.2s
//	✗ Collector failed 0.1s
//
// When stderr is a terminal an in-progress line is drawn first and then
// overwritten. SetColorMode applies the --no-color flag and the color config
// key to every style in the package.
package ui
