// fdsh is an interactive probe shell for filefd handles.
//
// Usage:
//
//	fdsh [options] <file>
//
// Options:
//
//	-r, --read         Open for reading (default when no access flag given)
//	-w, --write        Open for writing
//	-c, --create       Create the file if it does not exist
//	    --create-new   Create the file, failing if it exists
//	-t, --truncate     Truncate on open
//	-a, --append       Position sequential writes at end-of-file
//	    --config PATH  Config file (default: ~/.config/fdsh/config.json)
//	-v, --verbose      Debug logging of every operation
//
// Commands (in REPL):
//
//	read <n>                 Sequential read of n bytes
//	write <text>             Sequential write
//	pread <n> <offset>       Positioned read, cursor untouched
//	pwrite <text> <offset>   Positioned write, cursor untouched
//	seek <position>          Move the sequential cursor
//	lock <shared|exclusive> [tries]   Acquire an advisory lock
//	unlock                   Release the advisory lock
//	stat                     Metadata snapshot
//	size                     File size in bytes
//	sync                     Flush to stable storage
//	truncate <n>             Set end-of-file to n bytes
//	ready                    Show readiness flags
//	fd                       Show the native descriptor
//	help                     Show this help
//	exit / quit / q          Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/filefd"
	"github.com/calvinalkan/filefd/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		optRead      = flag.BoolP("read", "r", false, "open for reading")
		optWrite     = flag.BoolP("write", "w", false, "open for writing")
		optCreate    = flag.BoolP("create", "c", false, "create if missing")
		optCreateNew = flag.Bool("create-new", false, "create, fail if the file exists")
		optTruncate  = flag.BoolP("truncate", "t", false, "truncate on open")
		optAppend    = flag.BoolP("append", "a", false, "append mode")
		optConfig    = flag.String("config", "", "config file path")
		optVerbose   = flag.BoolP("verbose", "v", false, "debug logging")
	)

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fdsh [options] <file>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()

		return 2
	}

	if *optVerbose {
		logging.Default().SetLevel(logging.LevelDebug)
	}

	cfg, err := LoadConfig(*optConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fdsh: %v\n", err)

		return 1
	}

	flags := buildFlags(*optRead, *optWrite, *optCreate, *optCreateNew, *optTruncate, *optAppend)

	mode, err := cfg.FileMode()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fdsh: %v\n", err)

		return 1
	}

	path := flag.Arg(0)

	fd, err := filefd.Open(path, flags, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fdsh: %v\n", err)

		return 1
	}
	defer fd.Close()

	repl := &REPL{fd: fd, path: path, cfg: cfg}
	if err := repl.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "fdsh: %v\n", err)

		return 1
	}

	return 0
}

// buildFlags maps CLI switches onto an OpenFlags value. With no access
// switch at all, read-write-create is assumed so a bare `fdsh file` works.
func buildFlags(read, write, create, createNew, truncate, appendMode bool) filefd.OpenFlags {
	var flags filefd.OpenFlags

	if read {
		flags |= filefd.Read
	}

	if write {
		flags |= filefd.Write
	}

	if flags == 0 {
		flags = filefd.Read | filefd.Write | filefd.Create
	}

	if create {
		flags |= filefd.Create
	}

	if createNew {
		flags |= filefd.CreateNew
	}

	if truncate {
		flags |= filefd.Truncate
	}

	if appendMode {
		flags |= filefd.Append
	}

	return flags
}

// REPL is the interactive command loop.
type REPL struct {
	fd    *filefd.FileFd
	path  string
	cfg   Config
	liner *liner.State
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if r.cfg.HistoryFile != "" {
		if f, err := os.Open(r.cfg.HistoryFile); err == nil {
			_, _ = r.liner.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Printf("fdsh - filefd probe shell (%s, %s)\n", r.path, r.fd.Native())
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("fdsh> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "read":
			r.cmdRead(args)

		case "write":
			r.cmdWrite(args)

		case "pread":
			r.cmdPread(args)

		case "pwrite":
			r.cmdPwrite(args)

		case "seek":
			r.cmdSeek(args)

		case "lock":
			r.cmdLock(args)

		case "unlock":
			r.report(r.fd.Lock(filefd.LockUnlock, 1))

		case "stat":
			r.cmdStat()

		case "size":
			r.cmdSize()

		case "sync":
			r.report(r.fd.Sync())

		case "truncate":
			r.cmdTruncate(args)

		case "ready":
			state := r.fd.Readiness()
			fmt.Printf("readable=%v writable=%v\n", state.Readable(), state.Writable())

		case "fd":
			fmt.Println(r.fd.Native())

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

// saveHistory persists command history atomically so a crash mid-write never
// corrupts it.
func (r *REPL) saveHistory() {
	if r.cfg.HistoryFile == "" {
		return
	}

	var buf strings.Builder
	if _, err := r.liner.WriteHistory(&buf); err != nil {
		return
	}

	_ = atomic.WriteFile(r.cfg.HistoryFile, strings.NewReader(buf.String()))
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"read", "write", "pread", "pwrite",
		"seek", "lock", "unlock",
		"stat", "size", "sync", "truncate",
		"ready", "fd", "clear", "cls",
		"help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) report(err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Println("ok")
}

func (r *REPL) cmdRead(args []string) {
	n, ok := argInt(args, 0, "read <n>")
	if !ok {
		return
	}

	buf := make([]byte, n)

	got, err := r.fd.Read(buf)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Printf("%d bytes: %q\n", got, buf[:got])
}

func (r *REPL) cmdWrite(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: write <text>")

		return
	}

	data := []byte(strings.Join(args, " "))

	n, err := r.fd.Write(data)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Printf("wrote %d of %d bytes\n", n, len(data))
}

func (r *REPL) cmdPread(args []string) {
	n, ok := argInt(args, 0, "pread <n> <offset>")
	if !ok {
		return
	}

	offset, ok := argInt64(args, 1, "pread <n> <offset>")
	if !ok {
		return
	}

	buf := make([]byte, n)

	got, err := r.fd.Pread(buf, offset)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Printf("%d bytes at %d: %q\n", got, offset, buf[:got])
}

func (r *REPL) cmdPwrite(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: pwrite <text> <offset>")

		return
	}

	offset, ok := argInt64(args, len(args)-1, "pwrite <text> <offset>")
	if !ok {
		return
	}

	data := []byte(strings.Join(args[:len(args)-1], " "))

	n, err := r.fd.Pwrite(data, offset)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Printf("wrote %d of %d bytes at %d\n", n, len(data), offset)
}

func (r *REPL) cmdSeek(args []string) {
	position, ok := argInt64(args, 0, "seek <position>")
	if !ok {
		return
	}

	r.report(r.fd.Seek(position))
}

func (r *REPL) cmdLock(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: lock <shared|exclusive> [tries]")

		return
	}

	var mode filefd.LockMode

	switch strings.ToLower(args[0]) {
	case "shared", "sh", "s":
		mode = filefd.LockShared
	case "exclusive", "ex", "x":
		mode = filefd.LockExclusive
	default:
		fmt.Printf("unknown lock mode %q\n", args[0])

		return
	}

	tries := r.cfg.LockTries
	if len(args) > 1 {
		n, ok := argInt(args, 1, "lock <mode> [tries]")
		if !ok {
			return
		}

		tries = n
	}

	err := r.fd.Lock(mode, tries)
	if errors.Is(err, filefd.ErrLockContention) {
		fmt.Printf("contention after %d tries: %v\n", tries, err)

		return
	}

	r.report(err)
}

func (r *REPL) cmdStat() {
	st, err := r.fd.Stat()
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Printf("size:  %d bytes\n", st.Size)
	fmt.Printf("atime: %d ns\n", st.AtimeNsec)
	fmt.Printf("mtime: %d ns\n", st.MtimeNsec)
	fmt.Printf("dir:   %v\n", st.IsDir)
	fmt.Printf("reg:   %v\n", st.IsReg)
}

func (r *REPL) cmdSize() {
	size, err := r.fd.Size()
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	fmt.Printf("%d bytes\n", size)
}

func (r *REPL) cmdTruncate(args []string) {
	size, ok := argInt64(args, 0, "truncate <n>")
	if !ok {
		return
	}

	r.report(r.fd.Truncate(size))
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  read <n>                        Sequential read of n bytes")
	fmt.Println("  write <text>                    Sequential write")
	fmt.Println("  pread <n> <offset>              Positioned read, cursor untouched")
	fmt.Println("  pwrite <text> <offset>          Positioned write, cursor untouched")
	fmt.Println("  seek <position>                 Move the sequential cursor")
	fmt.Println("  lock <shared|exclusive> [tries] Acquire an advisory lock")
	fmt.Println("  unlock                          Release the advisory lock")
	fmt.Println("  stat                            Metadata snapshot")
	fmt.Println("  size                            File size in bytes")
	fmt.Println("  sync                            Flush to stable storage")
	fmt.Println("  truncate <n>                    Set end-of-file to n bytes")
	fmt.Println("  ready                           Show readiness flags")
	fmt.Println("  fd                              Show the native descriptor")
	fmt.Println("  help                            Show this help")
	fmt.Println("  exit / quit / q                 Exit")
}

func argInt(args []string, i int, usage string) (int, bool) {
	if i >= len(args) {
		fmt.Println("usage:", usage)

		return 0, false
	}

	n, err := strconv.Atoi(args[i])
	if err != nil {
		fmt.Printf("not a number: %q\n", args[i])

		return 0, false
	}

	return n, true
}

func argInt64(args []string, i int, usage string) (int64, bool) {
	if i >= len(args) {
		fmt.Println("usage:", usage)

		return 0, false
	}

	n, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		fmt.Printf("not a number: %q\n", args[i])

		return 0, false
	}

	return n, true
}
