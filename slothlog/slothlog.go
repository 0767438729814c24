// Package slothlog is the storage engine's thin logging wrapper: it
// standardizes the field every lifecycle log line carries (the tree
// name) the way the teacher's LSM implementation standardizes
// its log.Printf call sites around "LSM-Tree initialized at %s" /
// "failed to flush" style messages, but built on logrus so call sites
// get structured fields instead of ad hoc format strings.
package slothlog

import "github.com/sirupsen/logrus"

// Default returns the package-wide standard logger, used by any
// component that wasn't handed an explicit *logrus.Logger.
func Default() *logrus.Logger {
	return logrus.StandardLogger()
}

// Or returns log if non-nil, otherwise Default(). WithTree uses this
// so a nil logger falls back to the standard one.
func Or(log *logrus.Logger) *logrus.Logger {
	if log != nil {
		return log
	}
	return Default()
}

// WithTree returns an entry pre-populated with the owning tree's name,
// the field every compaction/flush/load log line in this repo carries.
func WithTree(log *logrus.Logger, name string) *logrus.Entry {
	return Or(log).WithField("tree", name)
}
