package logging

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"
	"syscall"
	"time"
)

// Attachment fences. Everything between them is raw child output or a
// structured dump, not a log record.
const (
	fenceOpen  = "<<<<<<<<<<<<<<<<"
	fenceClose = ">>>>>>>>>>>>>>>>"
)

// Logger is the process-wide append-only log sink. All records of one
// invocation carry the same session id so a postmortem reader can
// separate interleaved runs.
type Logger struct {
	config  Config
	session string
	sink    *os.File
	console bool
}

// New creates a Logger, opens the append-mode sink and writes the
// one-line system identity record. A sink that cannot be opened is not
// an error: file output becomes a no-op and only error mirroring to the
// console remains.
func New(config Config) *Logger {
	if config.Program == "" {
		config.Program = "pbl"
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	l := &Logger{
		config:  config,
		session: fmt.Sprintf("%s-%04d", config.Program, rand.IntN(10000)),
	}

	if config.Path != "" {
		sink, err := os.OpenFile(config.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err == nil {
			l.sink = sink
			if fi, err := sink.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
				// Sink already is a live console; mirroring errors to
				// stderr would duplicate every line.
				l.console = true
			}
		}
	}

	l.logIdentity()

	return l
}

// Session returns the per-process session id
func (l *Logger) Session() string {
	return l.session
}

// Close closes the underlying sink
func (l *Logger) Close() error {
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Logf formats and emits a record at the given level
func (l *Logger) Logf(level Level, format string, args ...any) {
	l.emit(level, 3, fmt.Sprintf(format, args...), "")
}

// Debugf emits a debug record
func (l *Logger) Debugf(format string, args ...any) {
	l.emit(LevelDebug, 3, fmt.Sprintf(format, args...), "")
}

// Infof emits an informational record
func (l *Logger) Infof(format string, args ...any) {
	l.emit(LevelInfo, 3, fmt.Sprintf(format, args...), "")
}

// Warnf emits a warning record
func (l *Logger) Warnf(format string, args ...any) {
	l.emit(LevelWarn, 3, fmt.Sprintf(format, args...), "")
}

// Errorf emits an error record. Error records are additionally mirrored
// to stderr, prefixed with the program name, unless the sink itself is a
// console.
func (l *Logger) Errorf(format string, args ...any) {
	l.emit(LevelError, 3, fmt.Sprintf(format, args...), "")
}

// Attach emits a record with a raw multi-line text block wrapped between
// the attachment fences
func (l *Logger) Attach(level Level, msg, block string) {
	l.emit(level, 3, msg, block)
}

// Dump emits a record with a deterministic, key-sorted dump of v,
// truncated to maxDepth levels (0 = unlimited)
func (l *Logger) Dump(level Level, msg string, v any, maxDepth int) {
	l.emit(level, 3, msg, Render(v, maxDepth))
}

// emit composes and appends one record. skip is the runtime.Caller
// distance to the line being attributed.
func (l *Logger) emit(level Level, skip int, msg, block string) {
	if level < l.config.Level {
		return
	}

	origin, line := caller(skip)
	record := fmt.Sprintf("%s <%d> %s %s.%d: %s",
		l.config.Now().Format("2006-01-02 15:04:05"), level, l.session, origin, line, msg)

	if block != "" {
		record += "\n" + fenceOpen + "\n" + strings.TrimRight(block, "\n") + "\n" + fenceClose
	}

	if l.sink != nil {
		fmt.Fprintln(l.sink, record)
	}

	if level > LevelWarn && !l.console {
		mirror := l.config.Mirror
		if mirror == nil {
			mirror = io.Writer(os.Stderr)
		}
		fmt.Fprintf(mirror, "%s: %s\n", l.config.Program, record)
	}
}

// caller resolves the attributed call site to a short function name and
// line number. Top-level calls resolve to "main".
func caller(skip int) (string, int) {
	pc, _, line, ok := runtime.Caller(skip)
	if !ok {
		return "main", 0
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "main", line
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name, line
}

// logIdentity writes the one-line system identity record: program,
// version and the best-effort root device, annotated "(chroot)" when the
// apparent root differs from the init process's filesystem root.
func (l *Logger) logIdentity() {
	root := rootDevice()
	note := ""
	if inChroot() {
		note = " (chroot)"
	}
	l.emit(LevelInfo, 3, fmt.Sprintf("%s %s, root: %s%s", l.config.Program, l.config.Version, root, note), "")
}

// rootDevice resolves the device mounted at "/". The mount table is
// preferred; the raw device id of "/" is the fallback.
func rootDevice() string {
	if f, err := os.Open("/proc/self/mounts"); err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) >= 2 && fields[1] == "/" {
				return fields[0]
			}
		}
	}

	var st syscall.Stat_t
	if err := syscall.Stat("/", &st); err != nil {
		return "unknown"
	}
	return fmt.Sprintf("%d:%d", (st.Dev>>8)&0xfff, st.Dev&0xff)
}

// inChroot reports whether "/" differs from the init process's root.
// Any stat failure (e.g. /proc unreadable) means no annotation.
func inChroot() bool {
	var self, init syscall.Stat_t
	if err := syscall.Stat("/", &self); err != nil {
		return false
	}
	if err := syscall.Stat("/proc/1/root/.", &init); err != nil {
		return false
	}
	return self.Dev != init.Dev || self.Ino != init.Ino
}
