package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lunfardo314/easycall"
	"github.com/lunfardo314/easycall/eventcall"
	"github.com/lunfardo314/easycall/library"
	"github.com/lunfardo314/easycall/util/testutil"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	flagFile  = flag.String("file", "", "YAML file with the calls")
	flagTag   = flag.String("tag", "", "tag to invoke, YAML scalar")
	flagArg   = flag.String("arg", "", "event argument, YAML scalar")
	flagMax   = flag.Duration("max", 10*time.Second, "maximum simulated time to drive the scheduler")
	flagDebug = flag.Bool("debug", false, "debug logging")
	flagList  = flag.Bool("list", false, "list the demo library and exit")
)

type options struct {
	file string
	tag  string
	arg  string
	max  time.Duration
	list bool
}

func main() {
	flag.Parse()
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log := testutil.NewLogger(*flagDebug, color)
	defer func() { _ = log.Sync() }()

	err := run(os.Stdout, log, options{
		file: *flagFile,
		tag:  *flagTag,
		arg:  *flagArg,
		max:  *flagMax,
		list: *flagList,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(out io.Writer, log *zap.SugaredLogger, opt options) error {
	lib := library.New()
	registerDemo(lib)
	if opt.list {
		for _, typeName := range []string{"console", "math", "text", "fl"} {
			_, _ = fmt.Fprintln(out, strings.Join(lib.Signatures(typeName), "\n"))
		}
		return nil
	}
	if opt.file == "" {
		return fmt.Errorf("-file is required")
	}
	data, err := os.ReadFile(opt.file)
	if err != nil {
		return err
	}
	calls, err := eventcall.LoadYAML(data)
	if err != nil {
		return fmt.Errorf("%s: %v", opt.file, err)
	}
	tag, err := scalar(opt.tag)
	if err != nil {
		return fmt.Errorf("-tag: %v", err)
	}
	arg, err := scalar(opt.arg)
	if err != nil {
		return fmt.Errorf("-arg: %v", err)
	}

	con := &console{out: out}
	ev := easycall.New(con, calls, easycall.Config{
		Log:     log,
		Library: lib,
	})
	log.Debugf("%d calls, %d tags", len(calls), len(ev.TagInvokers()))

	ev.InvokeWith(tag, arg)

	sched := ev.Scheduler()
	step := sched.FixedStep()
	for !sched.Idle() && con.now < opt.max {
		con.now += step
		sched.Poll(step)
		sched.PollFixed()
	}
	if !sched.Idle() {
		log.Warnf("tasks still running after %v", opt.max)
	}
	return nil
}

// scalar parses a command line value the way YAML scalars in the call file are parsed
func scalar(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var ret any
	if err := yaml.Unmarshal([]byte(s), &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
