package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/marks"
	"github.com/trezcool/vidyalaya/core/school"
	"github.com/trezcool/vidyalaya/core/user"
	logsvc "github.com/trezcool/vidyalaya/services/logger"
	"github.com/trezcool/vidyalaya/storage/database"
	inmemdb "github.com/trezcool/vidyalaya/storage/database/inmem"
	sqlxrepos "github.com/trezcool/vidyalaya/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	var (
		db         *sql.DB
		usrRepo    user.Repository
		schoolRepo school.Repository
		marksRepo  marks.Repository
	)
	if conf.Database.InMemory() {
		mem := inmemdb.Open()
		usrRepo = inmemdb.NewUserRepository(mem)
		schoolRepo = inmemdb.NewSchoolRepository(mem)
		marksRepo = inmemdb.NewMarksRepository(mem)
	} else {
		xdb, err := database.Open(conf)
		errAndDie(err)
		defer xdb.Close()
		db = xdb.DB
		usrRepo = sqlxrepos.NewUserRepository(xdb)
		schoolRepo = sqlxrepos.NewSchoolRepository(xdb)
		marksRepo = sqlxrepos.NewMarksRepository(xdb)
	}

	usrSvc := user.NewService(usrRepo, logger)
	schoolSvc := school.NewService(schoolRepo)

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:     conf,
		db:       db,
		usrSvc:   usrSvc,
		marksSvc: marks.NewService(marksRepo, usrSvc, schoolSvc),
		validate: validate,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
