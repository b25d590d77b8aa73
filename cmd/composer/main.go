package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lumastore/storefront/internal/composer"
	"github.com/lumastore/storefront/internal/pkg/telemetry"
)

// composer records a staff-entered order against the storefront API:
//
//	composer -store my-shop -customer "Ana Souza" -items prod-1:2,prod-7 -delivered
func main() {
	telemetry.InitLogger()

	var (
		apiURL    = flag.String("api", envOr("STOREFRONT_API_URL", "http://localhost:8080"), "storefront API base URL")
		slug      = flag.String("store", "", "store slug (required)")
		customer  = flag.String("customer", "", "customer name (required)")
		phone     = flag.String("phone", "", "customer messaging handle")
		items     = flag.String("items", "", "comma-separated product-id:quantity lines (required)")
		origin    = flag.String("origin", "in_person", "origin tag: in_person, phone, social, ...")
		payment   = flag.String("payment", "", "payment method note")
		notes     = flag.String("notes", "", "free-text notes")
		delivered = flag.Bool("delivered", false, "record as a completed walk-in sale")
		list      = flag.Bool("list", false, "list the store's products and exit")
	)
	flag.Parse()

	ctx := context.Background()
	client := composer.NewClient(*apiURL)

	if *list {
		if *slug == "" {
			flag.Usage()
			os.Exit(2)
		}
		products, err := client.ListProducts(ctx, *slug)
		if err != nil {
			slog.Error("failed to list products", "error", err)
			os.Exit(1)
		}
		for _, p := range products {
			fmt.Printf("%s\t%s\t%s\n", p.ID, p.Name, p.Price)
		}
		return
	}

	if *slug == "" || *customer == "" || *items == "" {
		flag.Usage()
		os.Exit(2)
	}

	var lines []composer.Line
	for _, raw := range strings.Split(*items, ",") {
		line, err := composer.ParseLine(strings.TrimSpace(raw))
		if err != nil {
			slog.Error("invalid item", "error", err)
			os.Exit(2)
		}
		lines = append(lines, line)
	}

	orderID, err := client.Submit(ctx, composer.Submission{
		StoreSlug:     *slug,
		CustomerName:  *customer,
		CustomerPhone: *phone,
		Lines:         lines,
		Origin:        *origin,
		PaymentMethod: *payment,
		Notes:         *notes,
		Delivered:     *delivered,
	})
	if err != nil {
		slog.Error("failed to submit order", "error", err)
		os.Exit(1)
	}
	fmt.Println(orderID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
