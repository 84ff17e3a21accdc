// Package validation validates configuration structs using
// `validate:"..."` struct tags. Field names in error messages follow
// the mapstructure tag so they match the keys users write in config
// files.
package validation
