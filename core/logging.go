package core

import "github.com/sirupsen/logrus"

// log is the package-level structured logger. Library code never calls
// Fatal/Panic on it — only cmd/ entry points do that, after configuring
// the formatter (see cmd/simulate).
var log = logrus.StandardLogger().WithField("component", "core")

// SetLogger lets embedders (the CLI, tests) swap in a differently
// configured entry, e.g. with a JSON formatter or extra fields.
func SetLogger(entry *logrus.Entry) {
	if entry != nil {
		log = entry
	}
}
