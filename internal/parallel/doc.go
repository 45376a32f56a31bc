// Package parallel runs independent work on a fixed pool of goroutines.
//
// The CTI driver uses it to clock groups of image columns concurrently
// when columns do not share trap state.
package parallel
