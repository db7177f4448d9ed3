package logger

import "sync"

// TestEntry is a single captured log entry.
type TestEntry struct {
	Level  string
	Msg    string
	Fields map[string]interface{}
}

// TestLogger captures log entries in memory for assertions in tests.
type TestLogger struct {
	mu      sync.Mutex
	entries []TestEntry
	fields  map[string]interface{}
}

// NewTestLogger creates a TestLogger.
func NewTestLogger() *TestLogger {
	return &TestLogger{fields: make(map[string]interface{})}
}

// Entries returns a copy of the captured entries.
func (t *TestLogger) Entries() []TestEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TestEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *TestLogger) record(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(t.fields)+len(fields))
	for k, v := range t.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	t.mu.Lock()
	t.entries = append(t.entries, TestEntry{Level: level, Msg: msg, Fields: merged})
	t.mu.Unlock()
}

func (t *TestLogger) Debug(msg string) { t.record("debug", msg, nil) }
func (t *TestLogger) Info(msg string)  { t.record("info", msg, nil) }
func (t *TestLogger) Warn(msg string)  { t.record("warn", msg, nil) }
func (t *TestLogger) Error(msg string) { t.record("error", msg, nil) }

func (t *TestLogger) WithField(key string, value interface{}) Logger {
	return t.WithFields(map[string]interface{}{key: value})
}

func (t *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(t.fields)+len(fields))
	for k, v := range t.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	// Child loggers record into the parent so assertions see every entry.
	return &sharedTestLogger{root: t, fields: merged}
}

func (t *TestLogger) WithError(err error) Logger {
	if err == nil {
		return t
	}
	return t.WithField("error", err.Error())
}

func (t *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	t.record("debug", msg, fields)
}

func (t *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	t.record("info", msg, fields)
}

func (t *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	t.record("warn", msg, fields)
}

func (t *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	t.record("error", msg, fields)
}

// sharedTestLogger forwards records to the root TestLogger with bound fields.
type sharedTestLogger struct {
	root   *TestLogger
	fields map[string]interface{}
}

func (s *sharedTestLogger) record(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(s.fields)+len(fields))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	s.root.record(level, msg, merged)
}

func (s *sharedTestLogger) Debug(msg string) { s.record("debug", msg, nil) }
func (s *sharedTestLogger) Info(msg string)  { s.record("info", msg, nil) }
func (s *sharedTestLogger) Warn(msg string)  { s.record("warn", msg, nil) }
func (s *sharedTestLogger) Error(msg string) { s.record("error", msg, nil) }

func (s *sharedTestLogger) WithField(key string, value interface{}) Logger {
	return s.WithFields(map[string]interface{}{key: value})
}

func (s *sharedTestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(s.fields)+len(fields))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &sharedTestLogger{root: s.root, fields: merged}
}

func (s *sharedTestLogger) WithError(err error) Logger {
	if err == nil {
		return s
	}
	return s.WithField("error", err.Error())
}

func (s *sharedTestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	s.record("debug", msg, fields)
}

func (s *sharedTestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	s.record("info", msg, fields)
}

func (s *sharedTestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	s.record("warn", msg, fields)
}

func (s *sharedTestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	s.record("error", msg, fields)
}
