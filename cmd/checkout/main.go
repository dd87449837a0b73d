package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tierpay/internal/checkout"
	"github.com/angelmondragon/tierpay/internal/client"
	"github.com/angelmondragon/tierpay/pkg/config"
	"github.com/angelmondragon/tierpay/pkg/enums"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

func main() {
	var (
		productID     = flag.String("product", "price_50_users", "pricing tier to purchase")
		name          = flag.String("name", "", "customer name")
		email         = flag.String("email", "", "customer email")
		paymentMethod = flag.String("payment-method", "pm_card_visa", "tokenized payment method")
		hosted        = flag.Bool("hosted", false, "use hosted checkout instead of an in-place card payment")
		baseURL       = flag.String("base-url", "", "backend API base URL (overrides TIERPAY_API_BASE_URL)")
	)
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "checkout"})
	_ = godotenv.Load()

	var clientCfg config.ClientConfig
	if cfg, err := config.Load(); err == nil {
		clientCfg = cfg.Client
	}
	if *baseURL != "" {
		clientCfg.BaseURL = *baseURL
	}

	if err := run(context.Background(), logg, clientCfg, *productID, *name, *email, *paymentMethod, *hosted); err != nil {
		fmt.Fprintln(os.Stderr, "checkout failed:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, clientCfg config.ClientConfig, productID, name, email, paymentMethod string, hosted bool) error {
	api := client.New(client.WithBaseURL(clientCfg.BaseURL))

	sdk, err := checkout.NewStripeSDK(paymentMethod)
	if err != nil {
		return err
	}

	orch, err := checkout.NewOrchestrator(checkout.Params{
		API:          api,
		SDK:          sdk,
		Logger:       logg,
		StageTimeout: clientCfg.StageTimeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = orch.Close() }()

	if err := orch.Begin(ctx, productID); err != nil {
		return fmt.Errorf("loading product: %w", err)
	}
	product := orch.Product()
	fmt.Printf("purchasing %s (%d users) for %d %s\n",
		product.Name, product.Users, product.Price, product.Currency)

	billing := checkout.BillingDetails{Name: name, Email: email}

	if hosted {
		url, err := orch.BeginHostedCheckout(ctx, billing)
		if err != nil {
			return describeFailure(orch, err)
		}
		fmt.Println("complete the payment at:", url)
		return nil
	}

	if err := orch.Submit(ctx, billing); err != nil {
		return describeFailure(orch, err)
	}

	nav := orch.Navigation()
	fmt.Printf("payment succeeded: %s (%s)\n", nav.ProductName, nav.PaymentIntentID)
	return nil
}

func describeFailure(orch *checkout.Orchestrator, err error) error {
	reason := orch.FailureReason()
	if reason == enums.FailureReasonNone {
		return err
	}
	for field, msg := range orch.FieldErrors() {
		fmt.Fprintf(os.Stderr, "  %s %s\n", field, msg)
	}
	if msg := orch.Message(); msg != "" {
		fmt.Fprintln(os.Stderr, " ", msg)
	}
	if reason.Retryable() {
		fmt.Fprintln(os.Stderr, "  this failure is retryable")
	}
	return fmt.Errorf("%s: %w", reason, err)
}
