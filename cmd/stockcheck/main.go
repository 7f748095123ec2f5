package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/rl1809/stockbook/config"
	"github.com/rl1809/stockbook/internal/adapter/storage"
	"github.com/rl1809/stockbook/internal/core/domain"
)

// stockcheck compares each product's recorded stock against its movement
// history. A product's stock is a cache of the net effect of its movements;
// after a crash between table writes the two can diverge, and this tool is
// how an operator finds out.
func main() {
	verbose := flag.Bool("v", false, "print every product, not just mismatches")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadEnv()
	logger := config.NewLogger(cfg.Logger)
	ctx := context.Background()

	catalog, err := storage.NewCatalogAdapter(cfg.DataDir)
	if err != nil {
		logger.WithError(err).Fatal("could not open product table")
	}
	ledger, err := storage.NewLedgerAdapter(cfg.DataDir)
	if err != nil {
		logger.WithError(err).Fatal("could not open ledger tables")
	}

	products, err := catalog.GetAll(ctx)
	if err != nil {
		logger.WithError(err).Fatal("could not load products")
	}
	movements, err := ledger.GetAllMovements(ctx)
	if err != nil {
		logger.WithError(err).Fatal("could not load stock movements")
	}

	byProduct := make(map[int][]domain.StockMovement)
	for _, m := range movements {
		byProduct[m.ProductID] = append(byProduct[m.ProductID], m)
	}

	mismatches := 0
	for _, p := range products {
		net, broken := replay(byProduct[p.ID])
		switch {
		case broken >= 0:
			mismatches++
			fmt.Printf("BROKEN  %-4d %-30s movement %d violates stockAfter = stockBefore ± quantity\n",
				p.ID, p.Name, broken)
		case net != p.Stock:
			mismatches++
			fmt.Printf("DRIFT   %-4d %-30s stock=%d, movements sum to %d\n", p.ID, p.Name, p.Stock, net)
		case *verbose:
			fmt.Printf("OK      %-4d %-30s stock=%d\n", p.ID, p.Name, p.Stock)
		}
	}

	fmt.Printf("%d products checked, %d mismatches\n", len(products), mismatches)
	if mismatches > 0 {
		os.Exit(1)
	}
}

// replay walks a product's movements in file order, checking the per-row
// invariant and returning the net stock they imply. The second return is
// the id of the first inconsistent movement, or -1.
func replay(movements []domain.StockMovement) (int, int) {
	net := 0
	for _, m := range movements {
		if m.StockAfter-m.StockBefore != m.Action.StockDelta(m.Quantity) {
			return 0, m.ID
		}
		net += m.Action.StockDelta(m.Quantity)
	}
	return net, -1
}
