// Package template scaffolds suite files from embedded Go templates.
//
// Templates are embedded in the binary using go:embed directives:
//
//	suites/sni.yaml.tmpl        certificate CN served for each host name
//	suites/poodle.yaml.tmpl     server rejects SSLv3 handshakes
//	suites/provision.yaml.tmpl  capistrano provisioning completes
//
// # Rendering Templates
//
//	content, err := template.Render(template.KindSNI, template.Data{
//	    Host:           "local.example.com",
//	    ProductionHost: "production.example.com",
//	    ProductionCN:   "example.com",
//	})
//
// # Custom Functions
//
// Templates have access to these functions:
//   - quote: render a string as a YAML scalar
//   - sclient: build an openssl s_client command (see package ssl)
package template
