package main

import (
	"github.com/trezcool/goose"

	"github.com/trezcool/shule/fs"
)

// migrationsDir is the directory inside the embedded appfs.FS holding the
// SQL scripts.
const migrationsDir = "migrations"

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	command, arguments := args[0], args[1:]
	return gooseRunFunc(command, cli.db, appfs.FS, migrationsDir, arguments...)
}
