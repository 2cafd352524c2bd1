package logger

import (
	"reflect"
	"testing"
)

type recordingLogger struct {
	lines []string
	kvs   [][]any
}

func (r *recordingLogger) record(level, message string, keyvals []any) {
	r.lines = append(r.lines, level+":"+message)
	r.kvs = append(r.kvs, keyvals)
}

func (r *recordingLogger) Log(m string, kv ...any)   { r.record("log", m, kv) }
func (r *recordingLogger) Debug(m string, kv ...any) { r.record("debug", m, kv) }
func (r *recordingLogger) Info(m string, kv ...any)  { r.record("info", m, kv) }
func (r *recordingLogger) Warn(m string, kv ...any)  { r.record("warn", m, kv) }
func (r *recordingLogger) Error(m string, kv ...any) { r.record("error", m, kv) }
func (r *recordingLogger) Fatal(m string, kv ...any) { r.record("fatal", m, kv) }

func TestDispatchesToAllBackends(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	Init(a, b)
	t.Cleanup(func() { Init() })

	Info("hello", "k", 1)
	Log("plain", "k", 2)

	want := []string{"info:hello", "log:plain"}
	for _, r := range []*recordingLogger{a, b} {
		if !reflect.DeepEqual(r.lines, want) {
			t.Fatalf("lines = %v, want %v", r.lines, want)
		}
		if !reflect.DeepEqual(r.kvs[1], []any{"k", 2}) {
			t.Fatalf("Log keyvals = %v, want [k 2]", r.kvs[1])
		}
	}
}

func TestNoBackendsIsNoop(t *testing.T) {
	Init()
	Info("nothing to see")
	Error("still nothing")
}
