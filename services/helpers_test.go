package services

import (
	"fmt"

	"cafe-etl/config"
	"cafe-etl/models"
)

// sequentialIDs returns a deterministic id generator: id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testTransformConfig() config.TransformConfig {
	return config.DefaultTransformConfig()
}

func cleanedRow(product, price, branch string) models.CleanedRow {
	return models.CleanedRow{
		Product:     product,
		Qty:         "1",
		Price:       price,
		Branch:      branch,
		PaymentType: "CARD",
		DateTime:    "25/08/2021 09:00",
	}
}
