package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
	"github.com/Jaimin17/Zenith-School-Backend/services/logger"
	"github.com/Jaimin17/Zenith-School-Backend/storage/database"
	"github.com/Jaimin17/Zenith-School-Backend/storage/database/sqlboiler"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(false)

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: user.NewService(core.NewTransactor(db), boiledrepos.NewRepository(db), nil, conf),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Sync()

	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
