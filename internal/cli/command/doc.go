// Package command defines the loresync-cli commands on urfave/cli/v2.
//
//   - simulate: run a scenario file against an in-process coordinator
//   - status, subsystems, operations: read a running loresync-server
//   - version: print build information
//
// Every command writes through the App's Writer in the format chosen
// by --output.
package command
