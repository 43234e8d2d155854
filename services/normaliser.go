package services

import (
	"strings"

	"github.com/google/uuid"

	"cafe-etl/models"
	"cafe-etl/utils"
)

// productIDSeparator joins the product ids of one transaction.
const productIDSeparator = ", "

type productKey struct {
	name, size, flavour string
}

// Arena owns the surrogate-id lookup tables of one transform call. It is
// created when the call starts and dropped when it returns; ids are never
// shared between arenas, so separate runs give the same names new ids.
type Arena struct {
	newID    func() string
	branches map[string]string
	products map[productKey]string
	logger   utils.Diagnostics
}

// NewArena creates an empty Arena. newID generates surrogate ids; nil means
// random UUIDs.
func NewArena(newID func() string, logger utils.Diagnostics) *Arena {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Arena{
		newID:    newID,
		branches: make(map[string]string),
		products: make(map[productKey]string),
		logger:   logger,
	}
}

// BranchID returns the id for name, allocating one on first sight.
func (a *Arena) BranchID(name string) (id string, created bool) {
	if id, ok := a.branches[name]; ok {
		return id, false
	}
	id = a.newID()
	a.branches[name] = id
	return id, true
}

// ProductID returns the id for the line item's lower-cased
// (product_name, size, flavour) triple, allocating one on first sight.
func (a *Arena) ProductID(p models.ParsedProduct) (id string, created bool) {
	key := productKey{
		name:    strings.ToLower(p.ProductName),
		size:    strings.ToLower(p.Size),
		flavour: strings.ToLower(p.Flavour),
	}
	if id, ok := a.products[key]; ok {
		return id, false
	}
	id = a.newID()
	a.products[key] = id
	return id, true
}

// NormaliseBranches replaces branch names with branch ids and assigns every
// transaction its id. Rows without a branch are dropped. The returned table
// lists each branch seen in rows once, in first-seen order.
func (a *Arena) NormaliseBranches(rows []models.ParsedRow) ([]models.Branch, []models.BranchedTransaction) {
	branches := make([]models.Branch, 0)
	updated := make([]models.BranchedTransaction, 0, len(rows))
	listed := make(map[string]struct{})

	for _, r := range rows {
		name := strings.TrimSpace(r.Branch)
		if name == "" {
			a.logger.Warn("[normaliser] Record missing branch info: %s @ %s", r.Product, r.DateTime)
			continue
		}

		id, _ := a.BranchID(name)
		if _, ok := listed[name]; !ok {
			listed[name] = struct{}{}
			branches = append(branches, models.Branch{ID: id, Name: name})
		}

		updated = append(updated, models.BranchedTransaction{
			ID:          a.newID(),
			BranchID:    id,
			DateTime:    r.DateTime,
			Product:     r.Product,
			Price:       r.Price,
			Qty:         r.Qty,
			PaymentType: r.PaymentType,
			Products:    r.Products,
		})
	}

	a.logger.Info("[normaliser] Normalised branches: %d unique branches found", len(branches))
	return branches, updated
}

// NormaliseProducts builds the product catalog and the transaction_product
// junction rows. Transactions without line items pass through without a
// product id.
func (a *Arena) NormaliseProducts(txs []models.BranchedTransaction) ([]models.Product, []models.FinalTransaction, []models.TransactionProduct) {
	products := make([]models.Product, 0)
	updated := make([]models.FinalTransaction, 0, len(txs))
	junction := make([]models.TransactionProduct, 0)
	listed := make(map[string]struct{})

	for _, tx := range txs {
		final := models.FinalTransaction{
			ID:          tx.ID,
			BranchID:    tx.BranchID,
			DateTime:    tx.DateTime,
			Price:       tx.Price,
			Qty:         tx.Qty,
			PaymentType: tx.PaymentType,
		}

		if len(tx.Products) == 0 {
			final.Product = tx.Product
			updated = append(updated, final)
			continue
		}

		ids := make([]string, 0, len(tx.Products))
		for _, item := range tx.Products {
			id, _ := a.ProductID(item)
			if _, ok := listed[id]; !ok {
				listed[id] = struct{}{}
				products = append(products, models.Product{
					ID:          id,
					ProductName: item.ProductName,
					Size:        item.Size,
					Flavour:     item.Flavour,
					Price:       item.Price,
				})
			}
			ids = append(ids, id)
			junction = append(junction, models.TransactionProduct{
				ID:            a.newID(),
				TransactionID: tx.ID,
				ProductID:     id,
			})
		}

		final.ProductID = strings.Join(ids, productIDSeparator)
		updated = append(updated, final)
	}

	a.logger.Info("[normaliser] Normalised products: found %d unique product records", len(products))
	return products, updated, junction
}
