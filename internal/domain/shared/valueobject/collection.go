package valueobject

// CollectionType says which party collected money from the end customer
type CollectionType string

const (
	CollectionReceiverFull  CollectionType = "receiver_full"
	CollectionSenderFull    CollectionType = "sender_full"
	CollectionSenderPartial CollectionType = "sender_partial"
)

// IsValid checks if the collection type is known
func (c CollectionType) IsValid() bool {
	switch c {
	case CollectionReceiverFull, CollectionSenderFull, CollectionSenderPartial:
		return true
	}
	return false
}

// String returns the string representation
func (c CollectionType) String() string {
	return string(c)
}

// SenderCollects reports whether the sending side took money from the customer
func (c CollectionType) SenderCollects() bool {
	return c == CollectionSenderFull || c == CollectionSenderPartial
}
