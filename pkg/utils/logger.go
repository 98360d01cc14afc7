package utils

// logger.go - structured logging setup, built on go.uber.org/zap.
//
// Every subsystem in the execution pipeline logs through a child Logger
// obtained via With/WithComponent so that log lines can be filtered by
// venue, mint, or pipeline stage without string parsing.

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures logger construction.
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // "json" or "text"
	Development bool
	Output      string // file path; empty/unwritable falls back to stderr
}

// Logger wraps a zap.Logger with a cached SugaredLogger for the *f variants.
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger builds a new Logger from cfg. It never panics: an unwritable
// Output path falls back to stderr.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "text" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink := openSink(cfg.Output)
	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// openSink resolves the configured output path to a WriteSyncer, falling
// back to stderr on any error so InitLogger never panics.
func openSink(output string) zapcore.WriteSyncer {
	if output == "" {
		return zapcore.Lock(os.Stderr)
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.Lock(f)
}

// ---------------------------------------------------------------------------
// Global logger singleton
// ---------------------------------------------------------------------------

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

// GetGlobalLogger lazily initializes a default Logger on first use.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// InitGlobalLogger builds a Logger from cfg, installs it as global, and
// returns it.
func InitGlobalLogger(cfg LogConfig) *Logger {
	l := InitLogger(cfg)
	SetGlobalLogger(l)
	return l
}

// SetGlobalLogger installs l as the process-wide logger.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// L is a short alias for GetGlobalLogger.
func L() *Logger {
	return GetGlobalLogger()
}

// ---------------------------------------------------------------------------
// Instance methods
// ---------------------------------------------------------------------------

// With returns a new Logger carrying the given structured fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), sugar: l.sugar.With(fieldsToInterface(fields)...)}
}

func (l *Logger) WithComponent(name string) *Logger { return l.With(Component(name)) }
func (l *Logger) WithExchange(name string) *Logger  { return l.With(Exchange(name)) }
func (l *Logger) WithVenue(name string) *Logger     { return l.With(Exchange(name)) }
func (l *Logger) WithSymbol(sym string) *Logger     { return l.With(Symbol(sym)) }
func (l *Logger) WithPairID(id int) *Logger         { return l.With(PairID(id)) }

// Sugar exposes the cached SugaredLogger.
func (l *Logger) Sugar() *zap.SugaredLogger { return l.sugar }

// Sync flushes buffered log entries.
func (l *Logger) Sync() error { return l.Logger.Sync() }

// ---------------------------------------------------------------------------
// Package-level logging through the global logger
// ---------------------------------------------------------------------------

func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetGlobalLogger().Logger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetGlobalLogger().Logger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Error(msg, fields...) }

func Debugf(format string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { GetGlobalLogger().sugar.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { GetGlobalLogger().sugar.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(format, args...) }

// ---------------------------------------------------------------------------
// Domain field constructors
// ---------------------------------------------------------------------------

func Exchange(v string) zap.Field  { return zap.String("exchange", v) }
func Symbol(v string) zap.Field    { return zap.String("symbol", v) }
func PairID(v int) zap.Field       { return zap.Int("pair_id", v) }
func OrderID(v string) zap.Field   { return zap.String("order_id", v) }
func Price(v float64) zap.Field    { return zap.Float64("price", v) }
func Volume(v float64) zap.Field   { return zap.Float64("volume", v) }
func Spread(v float64) zap.Field   { return zap.Float64("spread", v) }
func PNL(v float64) zap.Field      { return zap.Float64("pnl", v) }
func Side(v string) zap.Field      { return zap.String("side", v) }
func State(v string) zap.Field     { return zap.String("state", v) }
func Latency(v float64) zap.Field  { return zap.Float64("latency_ms", v) }
func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func UserID(v int) zap.Field       { return zap.Int("user_id", v) }
func Component(v string) zap.Field { return zap.String("component", v) }

// Domain constructors added for the execution pipeline; Exchange/Symbol above
// double as Venue/Mint aliases so existing call sites keep working.
func Venue(v string) zap.Field       { return zap.String("venue", v) }
func Mint(v string) zap.Field        { return zap.String("mint", v) }
func Signature(v string) zap.Field   { return zap.String("signature", v) }
func Slot(v uint64) zap.Field        { return zap.Uint64("slot", v) }
func PoolAddress(v string) zap.Field { return zap.String("pool", v) }
func Lamports(v uint64) zap.Field    { return zap.Uint64("lamports", v) }
func SpreadPct(v float64) zap.Field  { return zap.Float64("spread_pct", v) }
func Method(v string) zap.Field      { return zap.String("method", v) }

// Re-exported thin wrappers over zap's constructors.
func String(k, v string) zap.Field          { return zap.String(k, v) }
func Int(k string, v int) zap.Field         { return zap.Int(k, v) }
func Int64(k string, v int64) zap.Field     { return zap.Int64(k, v) }
func Float64(k string, v float64) zap.Field { return zap.Float64(k, v) }
func Bool(k string, v bool) zap.Field       { return zap.Bool(k, v) }
func Err(err error) zap.Field               { return zap.Error(err) }
func Any(k string, v interface{}) zap.Field { return zap.Any(k, v) }

// fieldsToInterface flattens zap.Field values into alternating key/value
// pairs for the SugaredLogger's variadic calls.
func fieldsToInterface(fields []zap.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		if v, ok := enc.Fields[f.Key]; ok {
			out = append(out, f.Key, v)
		} else {
			out = append(out, f.Key, nil)
		}
	}
	return out
}
