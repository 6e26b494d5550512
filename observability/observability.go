package observability

import (
	"fmt"
	"log"
	"os"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type int64Field struct {
	key string
	val int64
}

func (f int64Field) Key() string        { return f.key }
func (f int64Field) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, value} }
func Int64(key string, value int64) Field     { return int64Field{key, value} }
func Float64(key string, value float64) Field { return float64Field{key, value} }
func Error(key string, err error) Field       { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// StdLogger writes leveled key=value lines through the standard library
// logger. It is the default logger for the CLI and the HTTP server.
type StdLogger struct {
	l      *log.Logger
	fields []Field
}

func NewStdLogger() *StdLogger {
	return &StdLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *StdLogger) log(level, msg string, fields []Field) {
	line := level + " " + msg
	for _, f := range s.fields {
		line += fmt.Sprintf(" %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		line += fmt.Sprintf(" %s=%v", f.Key(), f.Value())
	}
	s.l.Println(line)
}

func (s *StdLogger) Debug(msg string, fields ...Field) { s.log("DEBUG", msg, fields) }
func (s *StdLogger) Info(msg string, fields ...Field)  { s.log("INFO", msg, fields) }
func (s *StdLogger) Warn(msg string, fields ...Field)  { s.log("WARN", msg, fields) }
func (s *StdLogger) Error(msg string, fields ...Field) { s.log("ERROR", msg, fields) }

func (s *StdLogger) With(fields ...Field) Logger {
	combined := append(append([]Field(nil), s.fields...), fields...)
	return &StdLogger{l: s.l, fields: combined}
}
