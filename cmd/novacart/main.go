package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MikeRez0/novacart/internal/adapter/auth"
	"github.com/MikeRez0/novacart/internal/adapter/config"
	"github.com/MikeRez0/novacart/internal/adapter/handler/http"
	"github.com/MikeRez0/novacart/internal/adapter/logger"
	"github.com/MikeRez0/novacart/internal/adapter/metrics"
	"github.com/MikeRez0/novacart/internal/adapter/notify"
	"github.com/MikeRez0/novacart/internal/adapter/storage"
	"github.com/MikeRez0/novacart/internal/adapter/storage/memory"
	"github.com/MikeRez0/novacart/internal/adapter/storage/repository"
	"github.com/MikeRez0/novacart/internal/core/port"
	"github.com/MikeRez0/novacart/internal/core/service"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		_ = log.Sync()
	}()

	if conf.App.Mode == config.AppModeProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo   port.Repository
		tx     port.Transactor
		pinger http.Pinger
	)
	if conf.Database.DSN == "" {
		log.Warn("DATABASE_URI is empty, using the in-memory store")
		mem := memory.New()
		repo, tx = mem, mem
	} else {
		db, err := storage.NewDBStorage(ctx, conf.Database)
		if err != nil {
			log.Error("database error", zap.Error(err))
			return
		}
		defer db.Close()

		err = db.RunMigrations()
		if err != nil {
			log.Error("database migration error", zap.Error(err))
			return
		}

		pgRepo, err := repository.NewRepository(db)
		if err != nil {
			log.Error("repository creating error", zap.Error(err))
			return
		}
		repo, tx, pinger = pgRepo, db, db
	}

	tokenService, err := auth.New(conf.Auth)
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	reg := metrics.NewRegistry()

	var sender notify.Sender
	if conf.Notify.Brokers != "" {
		kafkaSender := notify.NewKafkaSender(conf.Notify.Brokers, conf.Notify.Topic)
		defer func() {
			if err := kafkaSender.Close(); err != nil {
				log.Error("kafka writer close error", zap.Error(err))
			}
		}()
		sender = kafkaSender
	} else {
		sender = notify.NewLogSender(log.Named("Notification"))
	}
	dispatcher, err := notify.NewDispatcher(conf.Notify, sender, reg, log.Named("Dispatcher"))
	if err != nil {
		log.Error("notification dispatcher creating error", zap.Error(err))
		return
	}

	svc, err := service.NewService(repo, tx, tokenService, dispatcher, service.Policy{
		NumberAttempts:  conf.Order.NumberAttempts,
		RestockOnCancel: conf.Order.RestockOnCancel,
	}, log.Named("Service"))
	if err != nil {
		log.Error("order service creating error", zap.Error(err))
		return
	}

	if conf.Admin.Email != "" {
		err = svc.EnsureAdmin(ctx, conf.Admin.Name, conf.Admin.Email, conf.Admin.Password)
		if err != nil {
			log.Error("admin bootstrap error", zap.Error(err))
			return
		}
	}

	userHandler, err := http.NewUserHandler(svc, log.Named("User handler"))
	if err != nil {
		log.Error("user handler creating error", zap.Error(err))
		return
	}
	orderHandler, err := http.NewOrderHandler(svc, reg, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	productHandler, err := http.NewProductHandler(svc, log.Named("Product handler"))
	if err != nil {
		log.Error("product handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, tokenService, reg, pinger,
		orderHandler, userHandler, productHandler, log.Named("Router"))
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(ctx)
	})
	g.Go(func() error {
		return r.Serve(ctx, conf.HTTP.HostString)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", zap.Error(err))
	}
}
