// Command tsqldiff reconciles a live SQL Server database's schema against a
// directory of .sql files and prints the differences: parse flags, open one
// connection, run once, print, exit. With --config it instead loads a TOML
// service configuration and runs every subscription it defines.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/tsqldiff/tsqldiff/internal/catalog/mssql"
	"github.com/tsqldiff/tsqldiff/internal/compare"
	"github.com/tsqldiff/tsqldiff/internal/config"
	"github.com/tsqldiff/tsqldiff/internal/events"
	"github.com/tsqldiff/tsqldiff/internal/logutil"
	"github.com/tsqldiff/tsqldiff/internal/orchestrator"
	"github.com/tsqldiff/tsqldiff/internal/storage/memstore"
)

var version string

type cliOptions struct {
	User         string `short:"U" long:"user" description:"MSSQL user name" value-name:"user_name" default:"sa"`
	Password     string `short:"P" long:"password" description:"MSSQL user password, overridden by $MSSQL_PWD" value-name:"password"`
	Host         string `short:"h" long:"host" description:"Host to connect to the MSSQL server" value-name:"host_name" default:"127.0.0.1"`
	Port         uint   `short:"p" long:"port" description:"Port used for the connection" value-name:"port_num" default:"1433"`
	Prompt       bool   `long:"password-prompt" description:"Force MSSQL user password prompt"`
	Config       string `long:"config" description:"Path to a TOML service configuration; runs every subscription it defines" value-name:"path"`
	Snapshot     string `long:"snapshot-file" description:"Path to a YAML file used to persist the last-known object set between runs" value-name:"path"`
	NoTables     bool   `long:"no-tables" description:"Exclude tables (and their indexes) from the comparison"`
	NoViews      bool   `long:"no-views" description:"Exclude views from the comparison"`
	NoProcedures bool   `long:"no-procedures" description:"Exclude stored procedures from the comparison"`
	NoFunctions  bool   `long:"no-functions" description:"Exclude functions from the comparison"`
	NoTriggers   bool   `long:"no-triggers" description:"Exclude triggers from the comparison"`
	DebugDump    bool   `long:"debug-dump" description:"Pretty-print every emitted difference before the summary line"`
	Help         bool   `long:"help" description:"Show this help"`
	Version      bool   `long:"version" description:"Show this version"`
}

// parseOptions parses flags, resolves the password (--password-prompt wins,
// then $MSSQL_PWD, then --password), and returns the two positional
// arguments (database name, folder root) left over.
func parseOptions(args []string) (cliOptions, mssql.Config, string, string) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] db_name folder"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if opts.Config != "" {
		if len(rest) != 0 {
			fmt.Print("--config replaces the db_name and folder arguments\n\n")
			parser.WriteHelp(os.Stdout)
			os.Exit(1)
		}
		return opts, mssql.Config{}, "", ""
	}

	if len(rest) != 2 {
		fmt.Print("Expected exactly two arguments: db_name and folder\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	databaseName, root := rest[0], rest[1]

	password, ok := os.LookupEnv("MSSQL_PWD")
	if !ok {
		password = opts.Password
	}
	if opts.Prompt {
		fmt.Print("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		password = string(pass)
	}

	conn := mssql.Config{
		DbName:   databaseName,
		User:     opts.User,
		Password: password,
		Host:     opts.Host,
		Port:     int(opts.Port),
	}
	return opts, conn, databaseName, root
}

func main() {
	logutil.InitSlog()
	opts, conn, databaseName, root := parseOptions(os.Args[1:])

	if opts.Config != "" {
		runFromConfig(opts)
		return
	}

	cat, err := mssql.Open(conn)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", databaseName, err)
	}
	defer cat.Close()

	store, err := memstore.New(opts.Snapshot)
	if err != nil {
		log.Fatalf("failed to open snapshot file %q: %v", opts.Snapshot, err)
	}
	bus := events.New()

	cfg := compare.Config{
		Tables:     !opts.NoTables,
		Views:      !opts.NoViews,
		Procedures: !opts.NoProcedures,
		Functions:  !opts.NoFunctions,
		Triggers:   !opts.NoTriggers,
	}

	o := orchestrator.New(cat, store, bus, cfg, 1)
	o.Logger = orchestrator.StdoutLogger{}

	result, err := o.Run(context.Background(), orchestrator.Subscription{ID: databaseName, Root: root})
	if err != nil {
		if kind, ok := orchestrator.KindOf(err); ok && kind == orchestrator.InProgress {
			log.Fatalf("a comparison for %q is already running", databaseName)
		}
		log.Fatal(err)
	}

	if opts.DebugDump {
		for _, d := range result.Differences {
			pp.Println(d)
		}
	}

	fmt.Printf("%d difference(s) found (%d object(s) discovered but excluded)\n",
		len(result.Differences), len(result.Excluded))
	for _, d := range result.Differences {
		fmt.Printf("%s %s %s.%s\n", d.Type, d.Kind, d.Schema, d.Name)
	}
}

// runFromConfig loads a service configuration and runs every subscription
// it defines against one shared store and event bus, applying the
// configured history retention after each run.
func runFromConfig(opts cliOptions) {
	svc, err := config.LoadFile(opts.Config)
	if err != nil {
		log.Fatal(err)
	}

	store, err := memstore.New(opts.Snapshot)
	if err != nil {
		log.Fatalf("failed to open snapshot file %q: %v", opts.Snapshot, err)
	}
	bus := events.New()
	ctx := context.Background()

	failed := false
	for _, sub := range svc.Subscriptions {
		cat, err := mssql.Open(sub.Connection)
		if err != nil {
			log.Fatalf("failed to connect for subscription %q: %v", sub.ID, err)
		}

		o := orchestrator.New(cat, store, bus, sub.Compare, svc.AdmissionCapacity)
		o.Logger = orchestrator.StdoutLogger{}

		result, err := o.Run(ctx, orchestrator.Subscription{ID: sub.ID, Root: sub.Root})
		cat.Close()
		if err != nil {
			fmt.Printf("%s: %v\n", sub.ID, err)
			failed = true
			continue
		}

		if opts.DebugDump {
			for _, d := range result.Differences {
				pp.Println(d)
			}
		}
		fmt.Printf("%s: %d difference(s) found (%d object(s) discovered but excluded)\n",
			sub.ID, len(result.Differences), len(result.Excluded))
		for _, d := range result.Differences {
			fmt.Printf("%s %s %s.%s\n", d.Type, d.Kind, d.Schema, d.Name)
		}

		if days := svc.HistoryRetention.MaxAgeDays; days > 0 {
			cutoff := time.Now().AddDate(0, 0, -days)
			if err := store.DeleteOlderThan(ctx, sub.ID, cutoff); err != nil {
				log.Fatalf("history retention for %q: %v", sub.ID, err)
			}
		}
		if limit := svc.HistoryRetention.MaxPerSubscription; limit > 0 {
			if err := store.CapPerSubscription(ctx, sub.ID, limit); err != nil {
				log.Fatalf("history retention for %q: %v", sub.ID, err)
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}
