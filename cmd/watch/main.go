package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"marketbeat/config"
	"marketbeat/logger"
	"marketbeat/pkg/wshub"

	"go.uber.org/zap"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws/market", "market stream endpoint")
	flag.Parse()

	log, err := logger.New(config.LogConfig{Level: "info", Format: "console", Environment: "dev"})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := wshub.NewClient(*url, log)
	client.SetMessageHandler(func(msg wshub.Message) {
		for symbol, snap := range msg.Data {
			log.Info("snapshot",
				zap.String("symbol", symbol),
				zap.Float64("price", snap.Price),
				zap.Float64("macd", snap.Macd),
				zap.Float64("signal", snap.Signal),
				zap.Float64("hist", snap.Hist),
				zap.Time("ts", snap.Time()),
			)
		}
	})

	if err := client.Connect(ctx); err != nil {
		log.Fatal("connect failed", zap.String("url", *url), zap.Error(err))
	}
	defer client.Close()

	client.Listen(ctx)
}
