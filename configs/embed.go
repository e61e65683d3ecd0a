// Package configs provides the embedded configuration template for envcheck.
//
// The template is embedded at build time so `envcheck config init` works from
// any installation. Edit envcheck.example.yaml and rebuild to change it.
package configs

import _ "embed"

// ProjectConfigTemplate is written to .envcheck.yaml by `envcheck config init`.
// It lists every setting with its default value.
//
//go:embed envcheck.example.yaml
var ProjectConfigTemplate string
