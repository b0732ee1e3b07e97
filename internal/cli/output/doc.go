// Package output renders loresync-cli results as a table, JSON or YAML.
//
// Tables are derived from struct json tags. Fields tagged table:"wide"
// appear only with --wide; table:"-" hides a field from tables while
// keeping it in JSON and YAML.
package output
