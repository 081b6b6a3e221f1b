package events

import "staffledger/backend/internal/domain"

// Publisher forwards payment facts to downstream consumers (reporting,
// notifications). Publishing is best-effort; the ledger write has already
// committed by the time an event goes out.
type Publisher interface {
	PublishPaymentRecorded(event domain.PaymentRecordedEvent) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishPaymentRecorded(_ domain.PaymentRecordedEvent) error {
	return nil
}
