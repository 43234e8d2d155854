package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"cafe-etl/models"
	"cafe-etl/utils"
)

const topProductCount = 5

type SummaryService struct {
	logger utils.Diagnostics
}

func NewSummaryService(logger utils.Diagnostics) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate computes the batch figures from a transformed bundle.
func (s *SummaryService) Generate(b *models.Bundle) *models.BatchSummary {
	report := &models.BatchSummary{
		ByPaymentType: make(map[string]int),
	}
	if b.IsEmpty() {
		return report
	}

	report.Transactions = len(b.FinalTransactions)
	report.Branches = len(b.BranchData.BranchesTable)
	report.Products = len(b.ProductData.ProductsTable)
	report.LineItems = len(b.ProductData.TransactionProductTable)

	branchNames := make(map[string]string, len(b.BranchData.BranchesTable))
	for _, br := range b.BranchData.BranchesTable {
		branchNames[br.ID] = br.Name
	}

	byBranch := make(map[string]*models.BranchSummary)
	var order []string
	for _, tx := range b.FinalTransactions {
		if tx.ProductID == "" {
			report.UnparsedTransactions++
		}
		report.ByPaymentType[strings.ToUpper(tx.PaymentType)]++

		price, err := decimal.NewFromString(tx.Price)
		if err != nil {
			s.logger.Warn("[summary] Transaction %s has unreadable price %q", tx.ID, tx.Price)
			price = decimal.Zero
		}
		report.TotalRevenue = report.TotalRevenue.Add(price)

		bs, ok := byBranch[tx.BranchID]
		if !ok {
			bs = &models.BranchSummary{Name: branchNames[tx.BranchID]}
			byBranch[tx.BranchID] = bs
			order = append(order, tx.BranchID)
		}
		bs.Transactions++
		bs.Revenue = bs.Revenue.Add(price)
	}

	report.AverageTicket = report.TotalRevenue.
		Div(decimal.NewFromInt(int64(report.Transactions))).
		Round(2)

	for _, id := range order {
		report.ByBranch = append(report.ByBranch, *byBranch[id])
	}
	sort.SliceStable(report.ByBranch, func(i, j int) bool {
		return report.ByBranch[i].Revenue.GreaterThan(report.ByBranch[j].Revenue)
	})

	report.TopProducts = topProducts(b, topProductCount)
	return report
}

func topProducts(b *models.Bundle, n int) []models.ProductSummary {
	counts := make(map[string]int, len(b.ProductData.ProductsTable))
	for _, link := range b.ProductData.TransactionProductTable {
		counts[link.ProductID]++
	}

	out := make([]models.ProductSummary, 0, len(b.ProductData.ProductsTable))
	for _, p := range b.ProductData.ProductsTable {
		if counts[p.ID] == 0 {
			continue
		}
		out = append(out, models.ProductSummary{Label: productLabel(p), LineItems: counts[p.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LineItems > out[j].LineItems
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func productLabel(p models.Product) string {
	parts := make([]string, 0, 3)
	if p.Size != "" {
		parts = append(parts, p.Size)
	}
	parts = append(parts, p.ProductName)
	label := strings.Join(parts, " ")
	if p.Flavour != "" {
		label += " (" + p.Flavour + ")"
	}
	return label
}

func (s *SummaryService) Print(r *models.BatchSummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 CAFE BATCH SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Transactions loaded  : \033[1m%d\033[0m\n", r.Transactions)
	fmt.Printf("  Branches             : \033[1m%d\033[0m\n", r.Branches)
	fmt.Printf("  Distinct products    : \033[1m%d\033[0m\n", r.Products)
	fmt.Printf("  Line items           : \033[1m%d\033[0m\n", r.LineItems)
	fmt.Printf("  Unparsed product text: \033[1m%d\033[0m\n", r.UnparsedTransactions)
	fmt.Println()

	fmt.Printf("\033[1;33m  Revenue\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.Transactions > 0 {
		fmt.Printf("  Total revenue  : \033[1;32m£%s\033[0m\n", r.TotalRevenue.StringFixed(2))
		fmt.Printf("  Average ticket : \033[1;32m£%s\033[0m\n", r.AverageTicket.StringFixed(2))
	} else {
		fmt.Printf("  No revenue data available\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Revenue by Branch\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByBranch) == 0 {
		fmt.Printf("  No branch data\n")
	} else {
		for _, b := range r.ByBranch {
			fmt.Printf("  %-28s %5d tx  \033[1;32m£%s\033[0m\n",
				truncate(b.Name, 26), b.Transactions, b.Revenue.StringFixed(2))
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top %d Products\033[0m\n", topProductCount)
	fmt.Printf("  %s\n", thin)
	if len(r.TopProducts) == 0 {
		fmt.Printf("  No parsed products found\n")
	} else {
		for i, p := range r.TopProducts {
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%d\033[0m\n",
				i+1, truncate(p.Label, 38), p.LineItems)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Payment Types\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByPaymentType) == 0 {
		fmt.Printf("  No payment data\n")
	} else {
		type payCount struct {
			kind  string
			count int
		}
		var pays []payCount
		for kind, cnt := range r.ByPaymentType {
			pays = append(pays, payCount{kind, cnt})
		}
		sort.Slice(pays, func(i, j int) bool {
			if pays[i].count != pays[j].count {
				return pays[i].count > pays[j].count
			}
			return pays[i].kind < pays[j].kind
		})
		for _, pc := range pays {
			bar := strings.Repeat("█", min(pc.count, 40))
			fmt.Printf("  %-12s %s (%d)\n", truncate(pc.kind, 12), bar, pc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
