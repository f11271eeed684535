// Command receiptgen writes a folder of sample receipt text files and a
// matching OTP transaction list, for trying the pipeline end to end without
// real portal downloads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"rto-receipt-reconciler/internal/matcher"
	"rto-receipt-reconciler/internal/store"
)

// Generator produces receipts and the transaction list that pays for them.
// Roughly MatchRatio of the transactions get a receipt; of those, one in
// ChassisEvery is logged without a vehicle number so it matches on chassis.
type Generator struct {
	Count        int
	MatchRatio   float64
	ChassisEvery int
	StartDate    time.Time
	Days         int
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
	Seed         int64
}

// Payment is one generated transaction and, when HasReceipt is set, the
// receipt the portal issued for it.
type Payment struct {
	VehicleNo     string
	ChassisNo     string
	PaymentType   string
	Amount        decimal.Decimal
	PaidAt        time.Time
	HasReceipt    bool
	LogWithoutReg bool
}

func main() {
	var (
		outputDir  = flag.String("output-dir", "generated", "directory for receipts/ and the transaction list")
		txFile     = flag.String("transactions", "OTP_transaction_list.xlsx", "transaction list file name (.xlsx, .csv or .db)")
		count      = flag.Int("count", 50, "number of transactions to generate")
		matchRatio = flag.Float64("match-ratio", 0.8, "fraction of transactions that get a receipt")
		startDate  = flag.String("start-date", "2024-04-01", "first payment date (YYYY-MM-DD)")
		days       = flag.Int("days", 30, "number of days payments are spread over")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	g := &Generator{
		Count:        *count,
		MatchRatio:   *matchRatio,
		ChassisEvery: 4,
		StartDate:    start,
		Days:         *days,
		MinAmount:    decimal.NewFromInt(500),
		MaxAmount:    decimal.NewFromInt(25000),
		Seed:         *seed,
	}

	payments := g.Generate()
	receipts, err := g.WriteReceipts(filepath.Join(*outputDir, "receipts"), payments)
	if err != nil {
		log.Fatalf("Failed to write receipts: %v", err)
	}
	txPath := filepath.Join(*outputDir, *txFile)
	if err := g.WriteTransactions(context.Background(), txPath, payments); err != nil {
		log.Fatalf("Failed to write transactions: %v", err)
	}

	fmt.Printf("Generated %d transactions in %s\n", len(payments), txPath)
	fmt.Printf("Generated %d receipts in %s\n", receipts, filepath.Join(*outputDir, "receipts"))
	fmt.Printf("Seed used: %d\n", *seed)
}

// Generate creates the payments. The same seed always yields the same set.
func (g *Generator) Generate() []Payment {
	rng := rand.New(rand.NewSource(g.Seed))
	spread := g.MaxAmount.Sub(g.MinAmount)
	types := []string{"Tax", "Permit", "Fee"}

	payments := make([]Payment, g.Count)
	for i := range payments {
		paidAt := g.StartDate.
			AddDate(0, 0, rng.Intn(max(g.Days, 1))).
			Add(time.Duration(9+rng.Intn(9))*time.Hour + time.Duration(rng.Intn(60))*time.Minute)

		p := Payment{
			VehicleNo:   fmt.Sprintf("MH%02d%s%04d", 1+rng.Intn(50), string(rune('A'+rng.Intn(26)))+string(rune('A'+rng.Intn(26))), i+1),
			ChassisNo:   fmt.Sprintf("MAT%014d", rng.Int63n(1e14)),
			PaymentType: types[rng.Intn(len(types))],
			Amount:      decimal.NewFromFloat(rng.Float64()).Mul(spread).Add(g.MinAmount).Round(0),
			PaidAt:      paidAt,
			HasReceipt:  rng.Float64() < g.MatchRatio,
		}
		if p.HasReceipt && g.ChassisEvery > 0 && i%g.ChassisEvery == g.ChassisEvery-1 {
			p.LogWithoutReg = true
		}
		payments[i] = p
	}
	return payments
}

// WriteReceipts writes one MV tax receipt per payment that has one and
// returns how many were written.
func (g *Generator) WriteReceipts(dir string, payments []Payment) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	written := 0
	for i, p := range payments {
		if !p.HasReceipt {
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("mv_tax_%04d.txt", i+1))
		if err := os.WriteFile(name, []byte(receiptText(i, p)), 0644); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func receiptText(i int, p Payment) string {
	return fmt.Sprintf(`Government of Maharashtra
MV Tax Payment Receipt
Receipt No: MH12V%07d
GRN No: %09d
Vehicle No: %s
Chasis No: %s
Vehicle Class: Goods Carrier
Transaction Date: %s
Bank Reference Number: %012d
GRAND TOTAL (in Rs): %s
`, i+1, 100000000+i, p.VehicleNo, p.ChassisNo, p.PaidAt.Format("02-Jan-2006 03:04 PM"), 900000000000+int64(i), p.Amount.String())
}

// WriteTransactions writes the OTP transaction list in the format the
// store picks from the file extension.
func (g *Generator) WriteTransactions(ctx context.Context, path string, payments []Payment) error {
	s, err := store.ForPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	cols := matcher.DefaultTransactionColumns()
	t := store.NewTable(cols.Date, cols.VehicleNo, cols.ChassisNo, cols.PaymentType, cols.Amount, cols.BankAmount)
	for _, p := range payments {
		vehicle := p.VehicleNo
		if p.LogWithoutReg {
			vehicle = ""
		}
		t.AddRow(store.Row{
			cols.Date:        p.PaidAt.Format(matcher.LoggedTimeFormat),
			cols.VehicleNo:   vehicle,
			cols.ChassisNo:   p.ChassisNo,
			cols.PaymentType: p.PaymentType,
			cols.Amount:      p.Amount.String(),
			cols.BankAmount:  p.Amount.Add(decimal.NewFromInt(10)).String(),
		})
	}
	return s.Write(ctx, path, t)
}
