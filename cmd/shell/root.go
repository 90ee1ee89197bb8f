package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/leegeunhyeok/box-db/cmd/util"
	"github.com/leegeunhyeok/box-db/lib/box"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/engine/engines/memdb"
	"github.com/leegeunhyeok/box-db/lib/transaction"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ShellCmd starts an interactive session against an in-memory database.
	ShellCmd = &cobra.Command{
		Use:     "shell",
		Short:   "Interactive shell against an in-memory boxdb database",
		RunE:    run,
		PreRunE: processConfig,
	}

	defsPath  = ""
	dbName    = "boxdb"
	dbVersion = uint64(1)
)

func init() {
	key := "defs"
	ShellCmd.Flags().String(key, "", "Path to a YAML store definition file")
	key = "db"
	ShellCmd.Flags().String(key, "boxdb", "Database name")
	key = "db-version"
	ShellCmd.Flags().Uint64(key, 1, "Database version to open at")
}

func processConfig(cmd *cobra.Command, _ []string) error {
	util.InitConfig()
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	defsPath = viper.GetString("defs")
	dbName = viper.GetString("db")
	dbVersion = viper.GetUint64("db-version")
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	db := box.New(func() engine.Engine { return memdb.New() }, dbName, dbVersion)

	models := map[string]*box.Model{}
	if defsPath != "" {
		defs, err := util.LoadDefinitions(defsPath)
		if err != nil {
			return err
		}
		models, err = defs.Declare(db)
		if err != nil {
			return err
		}
	}

	if err := db.Open(ctx); err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("boxdb shell — database %q at version %d (%d store(s) declared)\n", dbName, dbVersion, len(models))
	fmt.Println(`type "help" for the command list`)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("boxdb> ")
		if err != nil {
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		args := strings.Fields(input)
		switch args[0] {
		case "exit", "quit":
			return nil
		case "help":
			printHelp()
		case "stores":
			for name := range models {
				fmt.Println(name)
			}
		case "stats":
			transaction.WriteMetrics(os.Stdout)
		default:
			if err := execCommand(ctx, models, args, input); err != nil {
				fmt.Println("error:", err)
			}
		}
	}
}

func printHelp() {
	fmt.Print(`commands:
  add <store> <json>          insert a record
  put <store> <json> [key]    upsert a record
  get <store> <key>           fetch a record by key
  delete <store> <key>        delete a record by key
  count <store>               count records
  list <store> [limit]        list records in ascending key order
  stores                      list declared stores
  stats                       dump task metrics
  exit                        leave the shell
`)
}

func execCommand(ctx context.Context, models map[string]*box.Model, args []string, input string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s <store> ...", args[0])
	}
	model, ok := models[args[1]]
	if !ok {
		return fmt.Errorf("unknown store %q", args[1])
	}

	switch args[0] {
	case "add", "put":
		// the record is everything after the store name, up to an optional
		// trailing key argument for put
		rest := strings.TrimSpace(strings.SplitN(input, args[1], 2)[1])
		var key []engine.Key
		if args[0] == "put" && !strings.HasSuffix(rest, "}") {
			i := strings.LastIndex(rest, "}")
			if i < 0 {
				return fmt.Errorf("record must be a JSON object")
			}
			key = append(key, parseKey(strings.TrimSpace(rest[i+1:])))
			rest = rest[:i+1]
		}
		var rec engine.Record
		if err := json.Unmarshal([]byte(rest), &rec); err != nil {
			return err
		}
		var (
			k   engine.Key
			err error
		)
		if args[0] == "add" {
			k, err = model.Add(ctx, rec, key...)
		} else {
			k, err = model.Put(ctx, rec, key...)
		}
		if err != nil {
			return err
		}
		fmt.Println("key:", k)

	case "get":
		if len(args) != 3 {
			return fmt.Errorf("usage: get <store> <key>")
		}
		rec, err := model.Get(ctx, parseKey(args[2]))
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println("(not found)")
			return nil
		}
		return printJSON(rec)

	case "delete":
		if len(args) != 3 {
			return fmt.Errorf("usage: delete <store> <key>")
		}
		return model.Delete(ctx, parseKey(args[2]))

	case "count":
		n, err := model.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Println(n)

	case "list":
		q := model.Find(nil)
		if len(args) == 3 {
			limit, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}
			q = q.Limit(limit)
		}
		recs, err := q.Get(ctx)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := printJSON(rec); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

// parseKey interprets a shell argument as a numeric key when possible,
// falling back to a string key.
func parseKey(s string) engine.Key {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func printJSON(rec engine.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
