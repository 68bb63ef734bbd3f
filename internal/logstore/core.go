package logstore

import (
	"strings"

	"go.uber.org/zap/zapcore"

	"scenario-bot/internal/domain"
)

// core is a zapcore.Core that copies every enabled entry into a Store.
// Fields are rendered with the console encoder after the message.
type core struct {
	zapcore.LevelEnabler
	store *Store
	enc   zapcore.Encoder
}

// Core returns a zapcore.Core feeding s. Tee it with the process output core
// so every log line also lands in the log API.
func (s *Store) Core(level zapcore.LevelEnabler) zapcore.Core {
	return &core{
		LevelEnabler: level,
		store:        s,
		enc: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			NameKey:          "logger",
			MessageKey:       "msg",
			EncodeName:       zapcore.FullNameEncoder,
			EncodeDuration:   zapcore.StringDurationEncoder,
			ConsoleSeparator: " ",
		}),
	}
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	enc := c.enc.Clone()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return &core{LevelEnabler: c.LevelEnabler, store: c.store, enc: enc}
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	msg := strings.TrimSpace(buf.String())
	buf.Free()

	c.store.Append(domain.LogEntry{
		Timestamp: ent.Time.Format(TimestampLayout),
		Level:     levelLabel(ent.Level),
		Message:   msg,
	})
	return nil
}

func (c *core) Sync() error {
	return nil
}
