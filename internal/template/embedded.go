package template

import "embed"

//go:embed suites/*.yaml.tmpl
var suiteTemplates embed.FS
