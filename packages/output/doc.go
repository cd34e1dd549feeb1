// Package output renders feature results for the terminal.
package output
