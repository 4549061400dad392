// Command tracker follows one invoice from the payer's side and logs every
// phase change until the invoice settles.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/config"
	"github.com/weave-cash/backend/internal/tracker"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()

	invoiceFlag := flag.String("invoice", "", "invoice id to track")
	payToken := flag.String("pay-token", "", "request a quote paying with this token")
	payNetwork := flag.String("pay-network", "", "network of -pay-token")
	refund := flag.String("refund", "", "refund address for the quote")
	flag.Parse()

	invoiceID, err := uuid.Parse(*invoiceFlag)
	if err != nil {
		log.Fatal("invalid -invoice", zap.String("invoice", *invoiceFlag), zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api := tracker.NewHTTPClient(cfg.TrackerAPIURL, 10*time.Second)
	initial, err := api.GetInvoice(ctx, invoiceID)
	if err != nil {
		log.Fatal("failed to load invoice", zap.Error(err))
	}

	var last tracker.View
	session, err := tracker.NewSession(api, *initial, tracker.Options{
		PollInterval: cfg.TrackerPollInterval,
		Log:          log,
		OnUpdate: func(v tracker.View) {
			if v.Phase == last.Phase && v.Status == last.Status && v.QuoteError == last.QuoteError {
				return
			}
			last = v
			fields := []zap.Field{
				zap.String("phase", string(v.Phase)),
				zap.String("status", string(v.Status)),
				zap.String("title", v.Presentation.Title),
				zap.Bool("provisional", v.Provisional),
			}
			if v.Instructions.DepositAddress != nil {
				fields = append(fields, zap.String("deposit_address", *v.Instructions.DepositAddress))
			}
			if v.Instructions.AmountIn != nil {
				fields = append(fields, zap.String("amount_in", *v.Instructions.AmountIn))
			}
			if left, ok := v.Remaining(time.Now()); ok {
				fields = append(fields, zap.String("expires_in", tracker.FormatCountdown(left)))
			}
			if v.QuoteError != "" {
				fields = append(fields, zap.String("quote_error", v.QuoteError))
			}
			log.Info("invoice update", fields...)
		},
	})
	if err != nil {
		log.Fatal("failed to start tracker", zap.Error(err))
	}

	if *payToken != "" {
		go func() {
			q, err := session.RequestQuote(ctx, tracker.QuoteInput{
				PayToken:      *payToken,
				PayNetwork:    *payNetwork,
				RefundAddress: *refund,
			})
			if err != nil {
				log.Error("quote request failed", zap.Error(err))
				return
			}
			log.Info("quote issued",
				zap.String("deposit_address", q.DepositAddress),
				zap.String("amount_in", q.AmountIn),
				zap.Time("expires_at", q.ExpiresAt),
			)
		}()
	}

	if err := session.Run(ctx); err != nil {
		log.Error("tracker stopped", zap.Error(err))
	}
	log.Info("tracker finished", zap.String("status", string(session.View().Status)))
}
