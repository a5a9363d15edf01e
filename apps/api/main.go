package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/medshare/backend/apps/api/echo"
	"github.com/medshare/backend/core"
	"github.com/medshare/backend/core/post"
	"github.com/medshare/backend/core/quiz"
	"github.com/medshare/backend/core/user"
	emailsvc "github.com/medshare/backend/services/email"
	logsvc "github.com/medshare/backend/services/logger"
	openaisvc "github.com/medshare/backend/services/openai"
	"github.com/medshare/backend/storage/database"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		rollbarLogger := logsvc.NewRollbarLogger(std, core.Conf)
		rollbarLogger.Enable(true)
		logger = rollbarLogger
	}

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()
	if err = database.Migrate(db.DB, core.Conf); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(database.NewUserRepository(db), mailSvc)
	postSvc := post.NewService(database.NewPostRepository(db), usrSvc)
	quizSvc := quiz.NewService(openaisvc.NewCompleter(logger))

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:        core.Conf.Server.Addr,
			Logger:         logger,
			UserSvc:        usrSvc,
			PostSvc:        postSvc,
			QuizSvc:        quizSvc,
			SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		},
	)

	go app.Start()

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()

	if err = app.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
	logger.Info("Application stopped")
}
