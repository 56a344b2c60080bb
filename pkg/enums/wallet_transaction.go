package enums

// WalletTransactionType classifies a ledger entry.
type WalletTransactionType string

const (
	WalletTransactionDeposit     WalletTransactionType = "DEPOSIT"
	WalletTransactionTransferIn  WalletTransactionType = "TRANSFER_IN"
	WalletTransactionTransferOut WalletTransactionType = "TRANSFER_OUT"
	WalletTransactionPayment     WalletTransactionType = "PAYMENT"
)

var transactionTypes = newSet("wallet transaction type",
	WalletTransactionDeposit,
	WalletTransactionTransferIn,
	WalletTransactionTransferOut,
	WalletTransactionPayment,
)

func (t WalletTransactionType) String() string { return string(t) }

func (t WalletTransactionType) IsValid() bool { return transactionTypes.has(t) }

// IsCredit reports whether the entry increases the wallet balance.
func (t WalletTransactionType) IsCredit() bool {
	return t == WalletTransactionDeposit || t == WalletTransactionTransferIn
}

func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	return transactionTypes.parse(value)
}

// WalletTransactionStatus tracks whether a ledger entry has been applied.
type WalletTransactionStatus string

const (
	WalletTransactionPending   WalletTransactionStatus = "PENDING"
	WalletTransactionCompleted WalletTransactionStatus = "COMPLETED"
)

var transactionStatuses = newSet("wallet transaction status", WalletTransactionPending, WalletTransactionCompleted)

func (s WalletTransactionStatus) IsValid() bool { return transactionStatuses.has(s) }

func ParseWalletTransactionStatus(value string) (WalletTransactionStatus, error) {
	return transactionStatuses.parse(value)
}
