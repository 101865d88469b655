package cli

import "github.com/lite-lake/wildcert/internal/constants"

// Options holds the parsed command line. Action flags combine; they run in
// the order install, generate, copy, renew, init, status.
type Options struct {
	ConfigFile string
	Verbose    bool
	// Staging points certbot at the Let's Encrypt staging directory.
	Staging bool

	Install  bool
	Generate bool
	Copy     bool
	Renew    bool
	Init     bool
	Status   bool
}

func NewOptions() *Options {
	return &Options{ConfigFile: constants.DefaultConfigFile}
}

func (o *Options) HasAction() bool {
	return o.Install || o.Generate || o.Copy || o.Renew || o.Init || o.Status
}

// NeedsConfig is false when only --install and --init are given.
func (o *Options) NeedsConfig() bool {
	return o.Generate || o.Copy || o.Renew || o.Status
}
