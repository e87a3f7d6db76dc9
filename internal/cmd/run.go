package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/qrsp/sticker-alias/internal/handlers"
	"github.com/qrsp/sticker-alias/internal/metrics"
	"github.com/qrsp/sticker-alias/internal/scheduler"
	"github.com/qrsp/sticker-alias/internal/trending"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot: long polling, daily scoring and metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.TelegramToken == "" {
			return errors.New("TELEGRAM_BOT_TOKEN is not set and no Docker secret was found")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		log.Info().
			Str("bot", bot.Self.UserName).
			Str("db", db.Path()).
			Str("update_time", cfg.UpdateTime()).
			Str("time_zone", cfg.Location.String()).
			Msg("authorized")

		engine := trending.New(db,
			trending.WithNotifier(handlers.NewNotifier(bot, db)),
			trending.WithLogger(log.With().Str("component", "trending").Logger()),
		)
		sched, err := scheduler.Start(ctx, engine, scheduler.Options{
			Location:   cfg.Location,
			Hour:       uint(cfg.UpdateHour),
			Minute:     uint(cfg.UpdateMinute),
			Second:     uint(cfg.UpdateSecond),
			RunOnStart: cfg.TrendingOnStart,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				log.Warn().Err(err).Msg("scheduler shutdown")
			}
		}()

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := bot.GetUpdatesChan(u)
		h := handlers.NewHandler(bot, db, engine, cfg.InlineCacheSeconds)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := metrics.Serve(gctx, cfg.MetricsAddr); err != nil {
				return fmt.Errorf("metrics on %s: %w", cfg.MetricsAddr, err)
			}
			return nil
		})
		g.Go(func() error {
			h.Listen(gctx, updates)
			if gctx.Err() == nil {
				return errors.New("telegram update channel closed")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			bot.StopReceivingUpdates()
			return nil
		})

		err = g.Wait()
		log.Info().Msg("shutting down")
		return err
	},
}
