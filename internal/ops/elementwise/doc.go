// Package elementwise provides elementwise operations that can be linked
// into the tail of another kernel instead of running as separate passes.
package elementwise
