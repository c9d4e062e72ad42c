package logsvc

import (
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/breakthefear/btf/core"
)

// data keys whose values never reach the logs
var sensitiveKeys = []string{"password", "secret", "token", "authorization"}

// Logger writes structured entries through zap and reports them to Rollbar when enabled.
type Logger struct {
	zl *zap.SugaredLogger
}

var _ core.Logger = (*Logger)(nil)

// NewZap returns the zap logger of the named component: human readable in debug, JSON otherwise.
func NewZap(conf *core.Config, name string) (*zap.Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if conf.Debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return zl.Named(name), nil
}

func NewLogger(zl *zap.Logger, conf *core.Config) *Logger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &Logger{zl: zl.Sugar()}
}

func (l *Logger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func mask(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isSensitive(k) {
			v = "****"
		}
		out[k] = v
	}
	return out
}

// prepare splits args (error, map[string]interface{}, core.Actor) into the Rollbar
// arguments and the zap key-value pairs.
func (l *Logger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var actorSet bool
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	fields := make([]interface{}, 0, 2*len(args))
	for _, arg := range args {
		switch arg := arg.(type) {
		case core.Actor:
			// only set one operator
			if !actorSet {
				rollbar.SetPerson(arg.ID, arg.Name(), "")
				fields = append(fields, "actor", arg.Name())
				actorSet = true
			}
		case error:
			rbArgs = append(rbArgs, arg)
			fields = append(fields, "error", arg)
		case map[string]interface{}:
			arg = mask(arg)
			rbArgs = append(rbArgs, arg)
			fields = append(fields, "data", arg)
		default:
			rbArgs = append(rbArgs, arg)
			fields = append(fields, "arg", arg)
		}
	}
	if !actorSet {
		rollbar.ClearPerson()
	}
	return rbArgs, fields
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.zl.Debugw(msg, fields...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.zl.Infow(msg, fields...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.zl.Warnw(msg, fields...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.zl.Errorw(msg, fields...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	rollbar.Wait()
	l.zl.Fatalw(msg, fields...)
}
