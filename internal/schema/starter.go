package schema

// Starter returns the invoice schema a new editing session opens with. Each
// field gets an id from newID.
func Starter(newID func() string) Schema {
	return Schema{
		{
			ID:          newID(),
			Key:         "vendor_name",
			Description: "Name of the company/store issuing the invoice",
			Type:        TypeString,
			Required:    true,
		},
		{
			ID:          newID(),
			Key:         "invoice_date",
			Description: "Transaction date in format YYYY-MM-DD",
			Type:        TypeString,
			Required:    true,
		},
		{
			ID:          newID(),
			Key:         "items",
			Description: "List of purchased items",
			Type:        TypeArray,
			Required:    true,
			ItemsStructure: NewItemsStructure(
				Item{Key: "name", Description: "Item name"},
				Item{Key: "qty", Description: "Item quantity (number)"},
				Item{Key: "price", Description: "Unit Price"},
			),
		},
		{
			ID:          newID(),
			Key:         "po_number",
			Description: "Purchase Order number associated with the invoice if available",
			Type:        TypeString,
			Required:    false,
		},
		{
			ID:          newID(),
			Key:         "total_amount",
			Description: "Final total amount to be paid as per the invoice (including taxes, fees)",
			Type:        TypeNumber,
			Required:    true,
		},
	}
}
