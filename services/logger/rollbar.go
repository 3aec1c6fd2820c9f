// Package logsvc provides the production core.Logger backed by Rollbar,
// mirroring everything to a standard logger for local visibility.
package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/fnedigital/genera/core"
	"github.com/fnedigital/genera/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// Enable toggles remote reporting; the std mirror always stays on.
func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// report sends to rollbar and mirrors to std. A user.User anywhere in args
// sets the rollbar person for the occurrence (first one wins); all other
// args are forwarded as extras.
func (l RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, msg)

	var person *user.User
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if person == nil {
				person = &usr
			}
			continue
		}
		payload = append(payload, arg)
	}
	if person != nil {
		rollbar.SetPerson(person.ID, person.FullName(), person.Email)
	} else {
		rollbar.ClearPerson()
	}
	send(payload...)

	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.Debug, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.Info, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.Warning, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.Error, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
