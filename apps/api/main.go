package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/vidyalaya/apps/api/echo"
	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/attendance"
	"github.com/trezcool/vidyalaya/core/comment"
	"github.com/trezcool/vidyalaya/core/gallery"
	"github.com/trezcool/vidyalaya/core/marks"
	"github.com/trezcool/vidyalaya/core/notice"
	"github.com/trezcool/vidyalaya/core/rating"
	"github.com/trezcool/vidyalaya/core/roster"
	"github.com/trezcool/vidyalaya/core/school"
	"github.com/trezcool/vidyalaya/core/user"
	appfs "github.com/trezcool/vidyalaya/fs"
	"github.com/trezcool/vidyalaya/services/cache"
	emailsvc "github.com/trezcool/vidyalaya/services/email"
	"github.com/trezcool/vidyalaya/services/jobs"
	logsvc "github.com/trezcool/vidyalaya/services/logger"
	"github.com/trezcool/vidyalaya/services/media"
	"github.com/trezcool/vidyalaya/storage/database"
	inmemdb "github.com/trezcool/vidyalaya/storage/database/inmem"
	sqlxrepos "github.com/trezcool/vidyalaya/storage/database/sqlx"
)

type repositories struct {
	users      user.Repository
	school     school.Repository
	marks      marks.Repository
	attendance attendance.Repository
	notices    notice.Repository
	gallery    gallery.Repository
	comments   comment.Repository
	ratings    rating.Repository
	close      func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up cache
	appCache, err := setUpCache(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}

	// set up media store
	store, err := media.NewStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up media store: %v", err), err)
	}

	// set up services
	mailSvc := emailsvc.New(conf, logger)
	usrSvc := user.NewService(repos.users, logger)
	schoolSvc := school.NewService(repos.school)
	marksSvc := marks.NewService(repos.marks, usrSvc, schoolSvc)
	rosterSvc := roster.NewService(usrSvc, marksSvc)
	attendanceSvc := attendance.NewService(repos.attendance, usrSvc)
	noticeSvc := notice.NewService(repos.notices, usrSvc, mailSvc, logger)
	gallerySvc := gallery.NewService(repos.gallery, store, conf, logger)
	commentSvc := comment.NewService(repos.comments, usrSvc)
	ratingSvc := rating.NewService(repos.ratings, usrSvc, appCache, mailSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	marks.InitValidators(validate, translator)
	rating.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// the in-memory engine starts empty: make sure the admin can log in
	if conf.Database.InMemory() {
		if _, err = usrSvc.EnsureAdmin(context.Background(), conf.Admin.Email, conf.Admin.Name, conf.Admin.Password); err != nil {
			logger.Fatal(fmt.Sprintf("ensuring admin: %v", err), err)
		}
	}

	// =========================================================================
	// Start Jobs

	if !conf.Jobs.Disabled {
		scheduler, err := jobs.NewScheduler(conf, logger, marksSvc, ratingSvc)
		if err != nil {
			logger.Fatal(fmt.Sprintf("scheduling jobs: %v", err), err)
		}
		scheduler.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()
			scheduler.Stop(ctx)
		}()
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			Cache:         appCache,
			Mailer:        mailSvc,
			UserSvc:       usrSvc,
			SchoolSvc:     schoolSvc,
			MarksSvc:      marksSvc,
			RosterSvc:     rosterSvc,
			AttendanceSvc: attendanceSvc,
			NoticeSvc:     noticeSvc,
			GallerySvc:    gallerySvc,
			CommentSvc:    commentSvc,
			RatingSvc:     ratingSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpRepositories(conf *core.Config) (*repositories, error) {
	if conf.Database.InMemory() {
		db := inmemdb.Open()
		return &repositories{
			users:      inmemdb.NewUserRepository(db),
			school:     inmemdb.NewSchoolRepository(db),
			marks:      inmemdb.NewMarksRepository(db),
			attendance: inmemdb.NewAttendanceRepository(db),
			notices:    inmemdb.NewNoticeRepository(db),
			gallery:    inmemdb.NewGalleryRepository(db),
			comments:   inmemdb.NewCommentRepository(db),
			ratings:    inmemdb.NewRatingRepository(db),
			close:      func() error { return nil },
		}, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &repositories{
		users:      sqlxrepos.NewUserRepository(db),
		school:     sqlxrepos.NewSchoolRepository(db),
		marks:      sqlxrepos.NewMarksRepository(db),
		attendance: sqlxrepos.NewAttendanceRepository(db),
		notices:    sqlxrepos.NewNoticeRepository(db),
		gallery:    sqlxrepos.NewGalleryRepository(db),
		comments:   sqlxrepos.NewCommentRepository(db),
		ratings:    sqlxrepos.NewRatingRepository(db),
		close:      db.Close,
	}, nil
}

// setUpCache connects to redis when configured, else keeps the cache in memory.
func setUpCache(conf *core.Config) (core.Cache, error) {
	if conf.Redis.Address == "" {
		return cache.NewMemory(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	return cache.NewRedis(ctx, conf.Redis, strings.ToLower(conf.AppName)+":")
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
