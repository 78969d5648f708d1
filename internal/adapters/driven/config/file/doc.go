// Package file loads application settings from a TOML file.
//
// Values are applied on top of domain.DefaultSettings, then environment
// variables override both. A missing file is not an error.
package file
