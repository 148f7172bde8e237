package events

// Topic constants for domain events emitted by the laboratory.
const (
	TopicInvoiceBatchCreated = "invoice_batch.created"
	TopicOrderInvoiced       = "order.invoiced"
)
