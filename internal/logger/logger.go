package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log = zap.NewNop()

var buffered *zapcore.BufferedWriteSyncer

// Init replaces the global logger. Output goes through a buffered syncer
// flushed every second, so callers on hot paths never wait on stderr.
func Init(debug bool) {
	level := zapcore.InfoLevel
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if debug {
		level = zapcore.DebugLevel
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	buffered = &zapcore.BufferedWriteSyncer{
		WS:            zapcore.Lock(os.Stderr),
		FlushInterval: time.Second,
	}

	core := zapcore.NewCore(enc, buffered, zap.NewAtomicLevelAt(level))
	Log = zap.New(core, zap.AddCaller())
}

func Sync() {
	_ = Log.Sync()
	if buffered != nil {
		_ = buffered.Stop()
		buffered = nil
	}
}
