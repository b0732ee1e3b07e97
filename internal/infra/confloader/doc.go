// Package confloader loads loresync configuration with koanf.
//
// Sources, later ones overriding earlier ones:
//
//  1. Values already present in the target struct (defaults)
//  2. A YAML configuration file
//  3. LORESYNC_* environment variables
//  4. Maps loaded explicitly (command-line flags, tests)
//
// Watcher reports changes to a configuration file so long-running
// processes can reload the settings that support it.
package confloader
