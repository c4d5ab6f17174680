package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/hibiken/asynq"

	"github.com/learnhub/learnhub/internal/app"
	"github.com/learnhub/learnhub/jobs"
)

const usage = `usage: jobsctl <command> [args]

commands:
  stats                     queue sizes
  retry <queue>             tasks waiting for retry
  trigger payment:process <payment-id>
  trigger maintenance:idempotency_cleanup
`

func main() {
	if app.InTestMode() {
		return
	}
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	cli := NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() { _ = cli.Close() }()

	if err := run(context.Background(), cli, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cli *JobsCLI, args []string) error {
	switch args[0] {
	case "stats":
		names := make([]string, 0, len(jobs.Queues))
		for name := range jobs.Queues {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s, err := cli.InspectQueue(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-10s pending=%d active=%d scheduled=%d retry=%d\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry)
		}
		return nil
	case "retry":
		if len(args) < 2 {
			return fmt.Errorf("retry: queue required")
		}
		tasks, err := cli.ListRetry(args[1], 20)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%s %s retried=%d last_err=%q\n", t.ID, t.Type, t.Retried, t.LastErr)
		}
		return nil
	case "trigger":
		if len(args) < 2 {
			return fmt.Errorf("trigger: job name required")
		}
		arg := ""
		if len(args) > 2 {
			arg = args[2]
		}
		if err := cli.Trigger(ctx, args[1], arg); err != nil {
			return err
		}
		fmt.Println("enqueued", args[1])
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
