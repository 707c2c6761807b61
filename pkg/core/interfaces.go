package core

// Logger is the leveled logging surface library packages depend on.
// *logging.Logger from github.com/op/go-logging satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Noticef(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debugf(string, ...interface{})   {}
func (NopLogger) Infof(string, ...interface{})    {}
func (NopLogger) Noticef(string, ...interface{})  {}
func (NopLogger) Warningf(string, ...interface{}) {}
func (NopLogger) Errorf(string, ...interface{})   {}
