package logging

import "time"

// TimedOperation measures one operation and logs it with its latency.
// Start it, do the work, then call one of the End methods.
type TimedOperation struct {
	logger Logger
	msg    string
	began  time.Time
	fields []Field
}

// StartTimer opens a timed operation logged under msg.
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		began:  time.Now(),
		fields: fields,
	}
}

func (t *TimedOperation) elapsed() []Field {
	return append(t.fields, Latency(time.Since(t.began)))
}

// End logs the operation at info.
func (t *TimedOperation) End() {
	t.logger.Info(t.msg, t.elapsed()...)
}

// EndDebug logs the operation at debug.
func (t *TimedOperation) EndDebug() {
	t.logger.Debug(t.msg, t.elapsed()...)
}

// EndError logs the operation at error with the fault attached.
func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg, append(t.elapsed(), Error(err))...)
}
