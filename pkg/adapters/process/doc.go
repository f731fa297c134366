// Package process launches local programs on behalf of blocks, restricted
// to an allow-list of named commands.
package process
