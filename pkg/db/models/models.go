package models

// All lists every persisted model, in dependency order, for test schemas and dev migrations.
func All() []any {
	return []any{
		&User{},
		&Wallet{},
		&WalletTransaction{},
		&PaymentOrder{},
		&OutboxEvent{},
	}
}
