package enums

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

// AggregateWallet keys every wallet event by wallet id.
const AggregateWallet OutboxAggregateType = "wallet"

var aggregateTypes = newSet("aggregate type", AggregateWallet)

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse(value)
}

// OutboxEventType names a wallet domain event. The value doubles as the
// event_type attribute on published messages.
type OutboxEventType string

const (
	EventWalletProvisioned     OutboxEventType = "wallet.provisioned"
	EventWalletDepositSettled  OutboxEventType = "wallet.deposit_settled"
	EventWalletTransferSettled OutboxEventType = "wallet.transfer_completed"
)

var eventTypes = newSet("outbox event type",
	EventWalletProvisioned,
	EventWalletDepositSettled,
	EventWalletTransferSettled,
)

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return eventTypes.parse(value)
}
