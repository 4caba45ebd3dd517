package models

// All lists every persisted model, in dependency order, for test schemas.
func All() []any {
	return []any{
		&User{},
		&Admin{},
		&SellerApplication{},
		&SellerAccount{},
		&Product{},
		&InventoryItem{},
		&Order{},
		&OrderLineItem{},
		&StockRestoration{},
		&SellerBalance{},
		&SellerTransaction{},
		&Payout{},
		&WithdrawalRequest{},
		&AuditLog{},
		&Notification{},
		&OutboxEvent{},
	}
}
