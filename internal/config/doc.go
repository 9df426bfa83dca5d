// Package config loads the hostcheck tool configuration and the suite
// files that define test cases, both in YAML.
//
// # Tool Configuration
//
// The optional file ~/.config/hostcheck/config.yaml holds defaults that
// apply to every run:
//
//	default_timeout: 60s   # used when neither suite nor case sets one
//	parallel: 4            # cases run at once
//	max_output: 1048576    # bytes captured per stream
//	excerpt: 512           # bytes of output quoted in a failure
//	format: text           # text, json or junit
//	shell: [/bin/bash, -c] # argv prefix for command lines
//
// A missing file yields New().
//
// # Suite Files
//
// A suite names a set of cases. Relative workdirs resolve against the
// suite file's directory, and timeouts fall back from case to suite to
// default_timeout. Timeouts accept Go durations or integer milliseconds.
//
//	name: ssl server name indication
//	workdir: temp
//	timeout: 60s
//	cases:
//	  - name: local host should serve local cert
//	    command: openssl s_client -connect local.example.com:443 -servername local.example.com
//	    allow_failure: true
//	    expect:
//	      - contains: {stream: stdout, text: CN=local.example.com}
//
// allow_failure tells the runner to ignore the exit status and judge the
// case on its expectations alone; openssl s_client exits non-zero when
// stdin closes mid-handshake, so the scaffolded TLS suites set it.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	suite, err := config.LoadSuite("checks/sni.yaml", cfg)
//
// # Thread Safety
//
// A loaded Suite is read-only; the runner shares its cases across
// goroutines without locking.
package config
