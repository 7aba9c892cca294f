/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/rs/zerolog"
	"github.com/suparena/tableops"
	"github.com/suparena/tableops/codec"
	"github.com/suparena/tableops/config"
	"github.com/suparena/tableops/datastore/ddb"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/expr"
	"github.com/suparena/tableops/interpreter"
	"github.com/suparena/tableops/logger"
	"github.com/suparena/tableops/registry"
	"github.com/suparena/tableops/storagemodels"
)

var (
	configFlag  = flag.String("config", "", "Path to a YAML configuration file")
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: tableops [flags] <command> [command flags]

Commands:
  scan   -limit N [-cursor TOKEN]     Print one page of items, then the next cursor
  query  -pk VALUE [-numeric]         Print every item in a partition
  get    -pk VALUE [-sk VALUE] [-numeric]
                                      Print a single item

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag || *vFlag {
		info := tableops.GetVersionInfo()
		fmt.Printf("tableops version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	table *tableops.Table[storagemodels.Item]
	exec  *interpreter.Blocking
	log   zerolog.Logger
	out   io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log, os.Stderr)

	client, err := ddb.NewDynamoDBClient(ctx, cfg.AWS, log)
	if err != nil {
		return err
	}

	registry.RegisterTable(cfg.Table.Ref())
	ref, err := registry.LookupTable(cfg.Table.Name)
	if err != nil {
		return err
	}

	a := &app{
		table: tableops.TableOf[storagemodels.Item](ref).WithCodec(codec.Raw{}),
		exec: interpreter.NewBlocking(client,
			interpreter.WithRetryPolicy(cfg.Batch.RetryPolicy()),
			interpreter.WithFanOut(cfg.Batch.FanOut),
			interpreter.WithLogger(log),
		),
		log: log,
		out: out,
	}

	switch args[0] {
	case "scan":
		return a.scan(ctx, args[1:])
	case "query":
		return a.query(ctx, args[1:])
	case "get":
		return a.get(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) scan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	limit := fs.Int("limit", 25, "Maximum items to read")
	cursor := fs.String("cursor", "", "Cursor returned by a previous scan")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start, err := storagemodels.ParseCursor(*cursor)
	if err != nil {
		return err
	}
	pg, err := interpreter.Execute(ctx, a.exec, a.table.ScanPage(int32(*limit), start))
	if err != nil {
		return err
	}
	for _, r := range pg.Items {
		if err := a.print(r.Value); err != nil {
			return err
		}
	}

	token, err := pg.Next.Token()
	if err != nil {
		return err
	}
	if token != "" {
		fmt.Fprintf(os.Stderr, "next cursor: %s\n", token)
	}
	return nil
}

func (a *app) query(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	pk := fs.String("pk", "", "Partition key value")
	numeric := fs.Bool("numeric", false, "Treat key values as numbers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pkv, err := keyValue(*pk, *numeric)
	if err != nil {
		return err
	}

	cond := expr.Equals(a.table.Ref().Keys.PartitionKey, pkv)
	var count int
	for r := range a.table.Stream(ctx, a.exec, &cond) {
		if r.Error != nil {
			return r.Error
		}
		if err := a.print(r.Item); err != nil {
			return err
		}
		count++
	}
	a.log.Debug().Int("count", count).Msg("query finished")
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	pk := fs.String("pk", "", "Partition key value")
	sk := fs.String("sk", "", "Sort key value")
	numeric := fs.Bool("numeric", false, "Treat key values as numbers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pkv, err := keyValue(*pk, *numeric)
	if err != nil {
		return err
	}
	key := storagemodels.PartitionKey(pkv)
	if a.table.Ref().Keys.HasSortKey() {
		skv, err := keyValue(*sk, *numeric)
		if err != nil {
			return err
		}
		key = storagemodels.CompositeKey(pkv, skv)
	}

	got, err := interpreter.Execute(ctx, a.exec, a.table.Get(key))
	if err != nil {
		return err
	}
	if got == nil {
		label := *pk
		if a.table.Ref().Keys.HasSortKey() {
			label += "|" + *sk
		}
		return errors.NewNotFoundError(a.table.Ref().Name, label)
	}
	return a.print(got.Value)
}

func keyValue(s string, numeric bool) (any, error) {
	if s == "" {
		return nil, fmt.Errorf("key value is required")
	}
	if !numeric {
		return s, nil
	}
	if _, ok := new(big.Rat).SetString(s); !ok {
		return nil, fmt.Errorf("invalid numeric key %q", s)
	}
	return attributevalue.Number(s), nil
}

func (a *app) print(item storagemodels.Item) error {
	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return err
	}
	line, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(line))
	return err
}
